package fitshdr

import (
	"fmt"
	"io"
	"strings"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

// Encode serializes the header, END card included, padded with blanks to a
// whole number of 2880-byte blocks.
func (h *Header) Encode() []byte {
	var b strings.Builder
	for i := range h.cards {
		b.WriteString(formatCard(&h.cards[i]))
	}
	b.WriteString(padCard("END"))

	for b.Len()%BlockSize != 0 {
		b.WriteString(strings.Repeat(" ", CardSize))
	}
	return []byte(b.String())
}

// Rewrite reads a FITS file from src, applies mutate to its primary header,
// and writes the mutated header followed by the unchanged data to dst.
// The data may move on disk when the new header needs more blocks than the
// old one; FITS block padding makes that safe.
func Rewrite(src io.Reader, dst io.Writer, mutate func(*Header) error) error {
	h, err := ParseHeader(src)
	if err != nil {
		return err
	}
	if err := mutate(h); err != nil {
		return err
	}
	if _, err := dst.Write(h.Encode()); err != nil {
		return herderrors.New(herderrors.ErrCodeWriteFailed, "writing header", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return herderrors.New(herderrors.ErrCodeWriteFailed, "copying data blocks", err)
	}
	return nil
}

// formatCard renders one 80-byte card.
func formatCard(c *Card) string {
	if !c.HasValue {
		// Commentary card: keyword then text, no value indicator.
		return padCard(fmt.Sprintf("%-8s %s", c.Name, c.Value))
	}

	var field string
	if c.Quoted {
		// Strings are left-justified with a minimum of 8 characters
		// between the quotes; embedded quotes double.
		esc := strings.ReplaceAll(c.Value, "'", "''")
		field = fmt.Sprintf("'%-8s'", esc)
	} else {
		// Fixed format: right-justified ending at column 30.
		field = fmt.Sprintf("%20s", c.Value)
	}

	s := fmt.Sprintf("%-8s= %s", c.Name, field)
	if c.Comment != "" {
		s += " / " + c.Comment
	}
	return padCard(s)
}

// padCard pads or truncates to exactly one card width.
func padCard(s string) string {
	if len(s) > CardSize {
		return s[:CardSize]
	}
	return s + strings.Repeat(" ", CardSize-len(s))
}
