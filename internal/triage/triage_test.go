package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitsherd/fitsherd/internal/fitshdr"
)

// writeFrame drops a minimal FITS file with the given extra keywords.
func writeFrame(t *testing.T, dir, name string, keywords map[string]string) {
	t.Helper()
	h := &fitshdr.Header{}
	h.SetNumber("SIMPLE", "T", "")
	h.SetNumber("BITPIX", "8", "")
	h.SetNumber("NAXIS", "0", "")
	for k, v := range keywords {
		h.SetString(k, v, "")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), h.Encode(), 0o644))
}

func TestIRAFImageType(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Bias Frame", "BIAS"},
		{"Light Frame", "LIGHT"},
		{"light", "LIGHT"},
		{"FLAT", "FLAT"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IRAFImageType(tt.in), tt.in)
	}
}

func TestNeedsFilter(t *testing.T) {
	assert.True(t, NeedsFilter(TypeFlat))
	assert.True(t, NeedsFilter(TypeLight))
	assert.False(t, NeedsFilter(TypeBias))
	assert.False(t, NeedsFilter(TypeDark))
	assert.False(t, NeedsFilter(""))
}

func TestRunFlagsDeficientHeaders(t *testing.T) {
	dir := t.TempDir()

	// Light frame with everything present.
	writeFrame(t, dir, "good.fits", map[string]string{
		"IMAGETYP": "Light Frame",
		"FILTER":   "R",
		"OBJCTRA":  "05 34 31.94",
		"OBJCTDEC": "+22 00 52.2",
		"OBJECT":   "m1",
	})
	// Light frame with no filter, no pointing, no object.
	writeFrame(t, dir, "bare.fits", map[string]string{
		"IMAGETYP": "Light Frame",
	})
	// Light frame with RA only: pointing is satisfied, object is not.
	writeFrame(t, dir, "ra_only.fits", map[string]string{
		"IMAGETYP": "LIGHT",
		"FILTER":   "V",
		"RA":       "12 30 00",
	})
	// Flat without a filter.
	writeFrame(t, dir, "flat.fits", map[string]string{
		"IMAGETYP": "Flat Frame",
	})
	// Bias frames never need a filter or pointing.
	writeFrame(t, dir, "zero.fits", map[string]string{
		"IMAGETYP": "Bias Frame",
	})

	report, err := Run(dir, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"bare.fits", "flat.fits"}, report.NeedsFilter)
	assert.Equal(t, []string{"bare.fits"}, report.NeedsPointing)
	assert.Equal(t, []string{"bare.fits", "ra_only.fits"}, report.NeedsObjectName)
	assert.Empty(t, report.Unreadable)
	assert.False(t, report.Clean())

	assert.Equal(t,
		[]string{"bare.fits", "flat.fits", "good.fits", "ra_only.fits", "zero.fits"},
		report.Files)
	assert.Equal(t,
		[]string{"Light Frame", "Flat Frame", "Light Frame", "LIGHT", "Bias Frame"},
		report.Summary["IMAGETYP"])
}

func TestRunUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "ok.fits", map[string]string{"IMAGETYP": "Bias Frame"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.fits"),
		make([]byte, fitshdr.BlockSize), 0o644))

	report, err := Run(dir, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"junk.fits"}, report.Unreadable)
	assert.Empty(t, report.NeedsFilter)
	assert.False(t, report.Clean())
}

func TestRunCleanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "a.fits", map[string]string{
		"IMAGETYP": "LIGHT",
		"FILTER":   "B",
		"RA":       "01 00 00",
		"DEC":      "+10 00 00",
		"OBJECT":   "ey uma",
	})

	report, err := Run(dir, Options{Keywords: []string{"imagetyp", "object"}})
	require.NoError(t, err)

	assert.True(t, report.Clean())
	assert.Equal(t, []string{"ey uma"}, report.Summary["OBJECT"])
}

func TestRunMissingDirectory(t *testing.T) {
	_, err := Run(filepath.Join(t.TempDir(), "absent"), Options{})
	require.Error(t, err)
}
