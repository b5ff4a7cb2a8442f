package objects

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/fitsherd/fitsherd/internal/astro"
	"github.com/fitsherd/fitsherd/internal/collection"
	herderrors "github.com/fitsherd/fitsherd/internal/errors"
	"github.com/fitsherd/fitsherd/internal/fitshdr"
)

// DefaultMatchRadius is the maximum distance, in arcminutes, between an
// image center and a catalog position for the image to count as an image
// of that object.
const DefaultMatchRadius = 20.0

// DefaultSuffix is inserted before the extension of patched copies.
const DefaultSuffix = "-new"

// Options configures an object-assignment run.
type Options struct {
	// ListName is the observing log file name. Defaults to
	// DefaultListName.
	ListName string

	// CatalogPath locates the object catalog. Relative paths resolve
	// against the image directory. Defaults to DefaultCatalogName.
	CatalogPath string

	// MatchRadius is the match distance in arcminutes. Defaults to
	// DefaultMatchRadius.
	MatchRadius float64

	// Suffix is inserted before the extension of output files.
	// Ignored when Overwrite is set.
	Suffix string

	// Overwrite replaces the input files instead of writing copies.
	Overwrite bool

	// DryRun matches but writes nothing.
	DryRun bool

	// Extensions and Compressed select which files count as FITS.
	Extensions []string
	Compressed bool

	// Reader serves headers. Defaults to a fresh caching reader.
	Reader *fitshdr.CachedReader
}

// Assignment records one matched image.
type Assignment struct {
	File       string
	Object     string
	Separation unit.Angle
}

// Result reports what an assignment run did.
type Result struct {
	// Observer is taken from the observing log.
	Observer string

	// Assigned lists images matched to exactly one cataloged object,
	// plus the winner of any ambiguous match.
	Assigned []Assignment

	// Ambiguous maps an image to every object within the match radius
	// when there was more than one. The first match wins.
	Ambiguous map[string][]string

	// Unmatched lists candidate images no cataloged object was close to.
	Unmatched []string

	// NotInCatalog lists observing-log objects absent from the catalog.
	NotInCatalog []string

	// Written lists the files created or replaced.
	Written []string
}

// Assign matches images in dir that have pointing information but no
// OBJECT keyword against the night's observing log, and writes the OBJECT
// keyword into the matches.
func Assign(dir string, opts Options) (*Result, error) {
	opts = assignDefaults(opts)

	log, err := ReadObjectList(dir, opts.ListName)
	if err != nil {
		return nil, err
	}

	catalogPath := opts.CatalogPath
	if !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(dir, catalogPath)
	}
	catalog, err := LoadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}

	coll, err := collection.New(dir, collection.Options{
		Keywords:   []string{fitshdr.KeyObject.Name},
		Extensions: opts.Extensions,
		Compressed: opts.Compressed,
		Reader:     opts.Reader,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Observer: log.Observer, Ambiguous: map[string][]string{}}
	radius := unit.AngleFromDeg(opts.MatchRadius / 60)

	// Resolve the night's objects once; names missing from the catalog
	// are reported, not fatal.
	type target struct {
		name string
		pos  Position
	}
	var targets []target
	for _, name := range log.Objects {
		pos, ok := catalog.Find(name)
		if !ok {
			result.NotInCatalog = append(result.NotInCatalog, name)
			continue
		}
		targets = append(targets, target{name: name, pos: pos})
	}

	objectCol, err := coll.Values(fitshdr.KeyObject.Name, false)
	if err != nil {
		return nil, err
	}

	for i, name := range coll.Files() {
		if objectCol[i] != "" {
			continue
		}
		hdr, err := opts.Reader.Header(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		raStr, ok := fitshdr.KeyRA.Lookup(hdr)
		if !ok {
			continue
		}
		decStr, ok := fitshdr.KeyDec.Lookup(hdr)
		if !ok {
			continue
		}
		ra, err := astro.ParseRA(raStr)
		if err != nil {
			slog.Warn("bad RA value", slog.String("file", name), slog.String("ra", raStr))
			continue
		}
		dec, err := astro.ParseDec(decStr)
		if err != nil {
			slog.Warn("bad Dec value", slog.String("file", name), slog.String("dec", decStr))
			continue
		}

		var matches []Assignment
		for _, t := range targets {
			sep := astro.Separation(ra, dec, t.pos.RA, t.pos.Dec)
			if sep <= radius {
				matches = append(matches, Assignment{
					File: name, Object: t.name, Separation: sep,
				})
			}
		}

		switch {
		case len(matches) == 0:
			result.Unmatched = append(result.Unmatched, name)
			continue
		case len(matches) > 1:
			names := make([]string, len(matches))
			for j, m := range matches {
				names[j] = m.Object
			}
			result.Ambiguous[name] = names
		}
		result.Assigned = append(result.Assigned, matches[0])

		if opts.DryRun {
			continue
		}
		written, err := writeObject(dir, name, matches[0].Object, opts)
		if err != nil {
			slog.Warn("cannot write object keyword",
				slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		if written != "" {
			result.Written = append(result.Written, written)
		}
	}
	return result, nil
}

// writeObject rewrites one file with its OBJECT card set. Compressed files
// cannot be rewritten in place and are skipped.
func writeObject(dir, name, object string, opts Options) (string, error) {
	if strings.HasSuffix(name, ".gz") {
		slog.Warn("skipping compressed file", slog.String("file", name))
		return "", nil
	}

	outName := name
	if !opts.Overwrite {
		outName = InsertSuffix(name, opts.Suffix)
	}

	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return "", herderrors.New(herderrors.ErrCodeFileUnreadable,
			"cannot open "+name, err)
	}
	defer func() { _ = src.Close() }()

	tmp, err := os.CreateTemp(dir, ".fitsherd-*")
	if err != nil {
		return "", herderrors.New(herderrors.ErrCodeWriteFailed,
			"cannot create output for "+name, err)
	}
	tmpName := tmp.Name()

	err = fitshdr.Rewrite(src, tmp, func(h *fitshdr.Header) error {
		h.SetString(fitshdr.KeyObject.Name, object, fitshdr.KeyObject.Comment)
		return nil
	})
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}

	if err := os.Rename(tmpName, filepath.Join(dir, outName)); err != nil {
		_ = os.Remove(tmpName)
		return "", herderrors.New(herderrors.ErrCodeWriteFailed,
			"cannot replace "+outName, err)
	}
	if opts.Overwrite && opts.Reader != nil {
		opts.Reader.Invalidate(filepath.Join(dir, name))
	}
	return outName, nil
}

// InsertSuffix inserts suffix between a file's base name and extension:
// "a.fits" with "-new" becomes "a-new.fits".
func InsertSuffix(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}

func assignDefaults(opts Options) Options {
	if opts.ListName == "" {
		opts.ListName = DefaultListName
	}
	if opts.CatalogPath == "" {
		opts.CatalogPath = DefaultCatalogName
	}
	if opts.MatchRadius == 0 {
		opts.MatchRadius = DefaultMatchRadius
	}
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if opts.Reader == nil {
		if r, err := fitshdr.NewCachedReader(); err == nil {
			opts.Reader = r
		}
	}
	return opts
}
