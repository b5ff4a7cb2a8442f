// Package patch adds derived metadata to FITS headers: observing-site
// coordinates, Julian dates and sidereal time for every frame, and
// horizontal coordinates with airmass for light frames.
package patch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fitsherd/fitsherd/internal/astro"
	"github.com/fitsherd/fitsherd/internal/collection"
	herderrors "github.com/fitsherd/fitsherd/internal/errors"
	"github.com/fitsherd/fitsherd/internal/fitshdr"
	"github.com/fitsherd/fitsherd/internal/triage"
)

// Header keywords written by the patcher.
const (
	KeyLatitude  = "LATITUDE"
	KeyLongitude = "LONGITUD"
	KeyAltitude  = "ALTITUDE"
	KeyJD        = "JD"
	KeyMJD       = "MJD"
	KeyLST       = "LST"
	KeyAltObj    = "ALT-OBJ"
	KeyAzObj     = "AZ-OBJ"
	KeyAirmass   = "AIRMASS"
	KeyHA        = "HA"
)

// DefaultSuffix is inserted before the extension of patched copies.
const DefaultSuffix = "-new"

// DefaultWorkers bounds how many files are patched concurrently.
const DefaultWorkers = 4

// siteKeywords and lightKeywords are recorded in HISTORY cards so a later
// reader can tell which values the tool wrote.
var (
	siteKeywords  = []string{KeyLatitude, KeyLongitude, KeyAltitude, KeyJD, KeyMJD, KeyLST}
	lightKeywords = []string{KeyAltObj, KeyAzObj, KeyAirmass, KeyHA}
)

// Options configures a patch run.
type Options struct {
	// Site supplies the observing location written into every header.
	Site astro.Site

	// Suffix is inserted before the extension of output files.
	// Ignored when Overwrite is set.
	Suffix string

	// Overwrite replaces the input files instead of writing copies.
	Overwrite bool

	// Workers bounds concurrent file rewrites. Defaults to
	// DefaultWorkers.
	Workers int

	// SecondsPrecision is the fractional digits of sexagesimal seconds.
	SecondsPrecision int

	// Manifest, Extensions and Compressed select the file list; an
	// existing manifest is preferred over a directory scan.
	Manifest   string
	Extensions []string
	Compressed bool
}

// Result reports what a patch run did. Per-file failures never abort the
// run.
type Result struct {
	// Patched lists output files written, in name order.
	Patched []string
	// Skipped lists files that were deliberately not patched: compressed
	// inputs and light frames without an RA.
	Skipped []string
	// Failed maps input files to their errors.
	Failed map[string]error
}

// Run patches every FITS file in dir.
func Run(ctx context.Context, dir string, opts Options) (*Result, error) {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.SecondsPrecision == 0 {
		opts.SecondsPrecision = 2
	}

	coll, err := collection.Load(dir, collection.Options{
		Manifest:   opts.Manifest,
		Extensions: opts.Extensions,
		Compressed: opts.Compressed,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Failed: map[string]error{}}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, name := range coll.Files() {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := patchFile(dir, name, opts)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				slog.Warn("patch failed",
					slog.String("file", name), slog.String("error", err.Error()))
				result.Failed[name] = err
			case out == "":
				result.Skipped = append(result.Skipped, name)
			default:
				result.Patched = append(result.Patched, out)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(result.Patched)
	sort.Strings(result.Skipped)
	return result, nil
}

// patchFile rewrites one file. An empty output name with nil error means
// the file was deliberately skipped.
func patchFile(dir, name string, opts Options) (string, error) {
	if strings.HasSuffix(name, ".gz") {
		slog.Warn("skipping compressed file", slog.String("file", name))
		return "", nil
	}

	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return "", herderrors.New(herderrors.ErrCodeFileUnreadable,
			"cannot open "+name, err)
	}
	defer func() { _ = src.Close() }()

	outName := name
	if !opts.Overwrite {
		ext := filepath.Ext(name)
		outName = strings.TrimSuffix(name, ext) + opts.Suffix + ext
	}

	tmp, err := os.CreateTemp(dir, ".fitsherd-*")
	if err != nil {
		return "", herderrors.New(herderrors.ErrCodeWriteFailed,
			"cannot create output for "+name, err)
	}
	tmpName := tmp.Name()

	skipped := false
	err = fitshdr.Rewrite(src, tmp, func(h *fitshdr.Header) error {
		skip, err := patchHeader(h, name, opts)
		skipped = skip
		return err
	})
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil || skipped {
		_ = os.Remove(tmpName)
		return "", err
	}

	if err := os.Rename(tmpName, filepath.Join(dir, outName)); err != nil {
		_ = os.Remove(tmpName)
		return "", herderrors.New(herderrors.ErrCodeWriteFailed,
			"cannot replace "+outName, err)
	}
	return outName, nil
}

// patchHeader mutates one parsed header. Returns skip=true for a light
// frame with no RA, which is left unpatched per the tool's contract.
func patchHeader(h *fitshdr.Header, name string, opts Options) (skip bool, err error) {
	prec := opts.SecondsPrecision
	site := opts.Site

	h.AddHistory("fitsherd patched this file on " +
		time.Now().UTC().Format("2006-01-02T15:04:05"))

	h.SetString(KeyLatitude, astro.FormatDMS(site.Latitude, prec, true),
		"observatory latitude")
	h.SetString(KeyLongitude, astro.FormatDMS(site.Longitude, prec, true),
		"observatory longitude, east positive")
	h.SetNumber(KeyAltitude, strconv.FormatFloat(site.Altitude, 'f', -1, 64),
		"observatory altitude, meters")

	dateObs, ok := fitshdr.KeyDateObs.Lookup(h)
	if !ok {
		return false, herderrors.New(herderrors.ErrCodeMissingHeaderValue,
			name+" has no DATE-OBS", nil)
	}
	obsTime, err := astro.ParseDateObs(dateObs)
	if err != nil {
		return false, err
	}

	jd := astro.RoundTo(astro.JulianDate(obsTime), 6)
	lst := astro.LocalSidereal(jd, site.Longitude)

	h.SetNumber(KeyJD, strconv.FormatFloat(jd, 'f', 6, 64),
		"Julian date at start of exposure")
	h.SetNumber(KeyMJD, strconv.FormatFloat(astro.ModifiedJulianDate(jd), 'f', 6, 64),
		"modified Julian date at start of exposure")
	h.SetString(KeyLST, astro.FormatHMS(lst, prec),
		"local sidereal time at start of exposure")
	h.AddHistory("fitsherd updated keywords " + strings.Join(siteKeywords, " "))

	imageType, _ := fitshdr.KeyImageType.Lookup(h)
	if triage.IRAFImageType(imageType) != triage.TypeLight {
		return false, nil
	}

	raStr, ok := fitshdr.KeyRA.Lookup(h)
	if !ok {
		slog.Warn("light frame has no RA, skipping", slog.String("file", name))
		return true, nil
	}
	decStr, ok := fitshdr.KeyDec.Lookup(h)
	if !ok {
		slog.Warn("light frame has no Dec, skipping", slog.String("file", name))
		return true, nil
	}
	ra, err := astro.ParseRA(raStr)
	if err != nil {
		return false, err
	}
	dec, err := astro.ParseDec(decStr)
	if err != nil {
		return false, err
	}

	p := site.Pointing(ra, dec, lst)
	h.SetNumber(KeyAltObj, strconv.FormatFloat(astro.RoundTo(p.Alt.Deg(), 5), 'f', -1, 64),
		"altitude of object, degrees")
	h.SetNumber(KeyAzObj, strconv.FormatFloat(astro.RoundTo(p.Az.Deg(), 5), 'f', -1, 64),
		"azimuth of object, degrees")
	h.SetNumber(KeyAirmass, strconv.FormatFloat(astro.RoundTo(p.Airmass, 3), 'f', -1, 64),
		"airmass, sec(z)")
	h.SetString(KeyHA, astro.FormatHMS(p.HourAngle, prec),
		"hour angle of object")
	h.AddHistory("fitsherd updated keywords " + strings.Join(lightKeywords, " "))
	return false, nil
}
