package fitshdr

// Keyword is an immutable keyword schema: a canonical name plus the header
// aliases different acquisition programs write it under. Per-file values
// live in Header and summary rows, never on the Keyword itself.
type Keyword struct {
	Name    string
	Aliases []string
	Comment string
}

// Names returns the canonical name followed by the aliases.
func (k Keyword) Names() []string {
	names := make([]string, 0, 1+len(k.Aliases))
	names = append(names, k.Name)
	names = append(names, k.Aliases...)
	return names
}

// Lookup returns the first non-empty value found under the canonical name
// or any alias.
func (k Keyword) Lookup(h *Header) (string, bool) {
	for _, name := range k.Names() {
		if v, ok := h.Get(name); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Present reports whether the keyword appears in the header under any of
// its names, regardless of value.
func (k Keyword) Present(h *Header) bool {
	for _, name := range k.Names() {
		if h.Has(name) {
			return true
		}
	}
	return false
}

// Keywords the triage and patch pipelines care about. MaxIm DL writes
// OBJCTRA/OBJCTDEC, other acquisition software writes RA/DEC.
var (
	KeyImageType = Keyword{Name: "IMAGETYP", Comment: "frame type"}
	KeyFilter    = Keyword{Name: "FILTER", Comment: "filter wheel position"}
	KeyDateObs   = Keyword{Name: "DATE-OBS", Comment: "start of exposure, UTC"}
	KeyRA        = Keyword{Name: "RA", Aliases: []string{"OBJCTRA"}, Comment: "approximate RA of image center"}
	KeyDec       = Keyword{Name: "DEC", Aliases: []string{"OBJCTDEC"}, Comment: "approximate Dec of image center"}
	KeyObject    = Keyword{Name: "OBJECT", Comment: "target of observation"}
)
