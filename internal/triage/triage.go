// Package triage checks a directory of FITS files for deficient headers:
// missing filters on flat and light frames, missing pointing information
// and missing object names on light frames.
package triage

import (
	"path/filepath"
	"strings"

	"github.com/fitsherd/fitsherd/internal/collection"
	"github.com/fitsherd/fitsherd/internal/fitshdr"
)

// Image types in the IRAF vocabulary.
const (
	TypeLight = "LIGHT"
	TypeFlat  = "FLAT"
	TypeBias  = "BIAS"
	TypeDark  = "DARK"
)

// IRAFImageType converts a camera-software image type name to the IRAF
// one: "Bias Frame" becomes "BIAS". Safe to call on a value that is
// already IRAF style.
func IRAFImageType(imageType string) string {
	fields := strings.Fields(imageType)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// NeedsFilter reports whether frames of this image type must carry a
// FILTER keyword. Only flats and lights do.
func NeedsFilter(imageType string) bool {
	return imageType == TypeFlat || imageType == TypeLight
}

// Options configures a triage run.
type Options struct {
	// Keywords are kept in the report summary. Defaults to IMAGETYP.
	Keywords []string

	// Extensions and Compressed select which files count as FITS;
	// they carry the collection defaults.
	Extensions []string
	Compressed bool

	// Reader serves full headers for the presence checks. Defaults to a
	// shared caching reader, so the collection scan and the triage pass
	// read each file once.
	Reader *fitshdr.CachedReader
}

// Report lists the files in a directory that fail each header check.
type Report struct {
	// Location is the directory that was checked.
	Location string

	// NeedsFilter lists flat and light frames without a FILTER keyword.
	NeedsFilter []string

	// NeedsPointing lists light frames carrying no RA, Dec or object
	// keyword at all.
	NeedsPointing []string

	// NeedsObjectName lists light frames without an OBJECT keyword.
	NeedsObjectName []string

	// Unreadable lists files whose primary header could not be parsed.
	Unreadable []string

	// Files and Summary mirror the underlying collection index.
	Files   []string
	Summary map[string][]string
}

// Clean reports whether every check passed.
func (r *Report) Clean() bool {
	return len(r.NeedsFilter) == 0 &&
		len(r.NeedsPointing) == 0 &&
		len(r.NeedsObjectName) == 0 &&
		len(r.Unreadable) == 0
}

// Run scans dir and checks every FITS file's header. Triage never trusts
// a manifest: it always reads the files as they are on disk.
func Run(dir string, opts Options) (*Report, error) {
	if len(opts.Keywords) == 0 {
		opts.Keywords = []string{fitshdr.KeyImageType.Name}
	}
	reader := opts.Reader
	if reader == nil {
		r, err := fitshdr.NewCachedReader()
		if err != nil {
			return nil, err
		}
		reader = r
	}

	coll, err := collection.New(dir, collection.Options{
		Keywords:   opts.Keywords,
		Extensions: opts.Extensions,
		Compressed: opts.Compressed,
		Reader:     reader,
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		Location:   dir,
		Unreadable: coll.Unreadable(),
		Files:      coll.Files(),
		Summary:    coll.Summary(),
	}

	unreadable := make(map[string]bool, len(report.Unreadable))
	for _, f := range report.Unreadable {
		unreadable[f] = true
	}

	for _, name := range report.Files {
		if unreadable[name] {
			continue
		}
		hdr, err := reader.Header(filepath.Join(dir, name))
		if err != nil {
			report.Unreadable = append(report.Unreadable, name)
			continue
		}

		imageType := IRAFImageType(headerValue(hdr, fitshdr.KeyImageType))
		if NeedsFilter(imageType) && !fitshdr.KeyFilter.Present(hdr) {
			report.NeedsFilter = append(report.NeedsFilter, name)
		}

		if imageType != TypeLight {
			continue
		}
		pointing := fitshdr.KeyRA.Present(hdr) ||
			fitshdr.KeyDec.Present(hdr) ||
			fitshdr.KeyObject.Present(hdr)
		if !pointing {
			report.NeedsPointing = append(report.NeedsPointing, name)
		}
		if !hdr.Has(fitshdr.KeyObject.Name) {
			report.NeedsObjectName = append(report.NeedsObjectName, name)
		}
	}
	return report, nil
}

func headerValue(hdr *fitshdr.Header, key fitshdr.Keyword) string {
	v, _ := key.Lookup(hdr)
	return v
}
