package patch

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitsherd/fitsherd/internal/astro"
	herderrors "github.com/fitsherd/fitsherd/internal/errors"
	"github.com/fitsherd/fitsherd/internal/fitshdr"
)

var testSite = astro.NewSite("test", 46.86678, -96.45328, 311)

func writeFrame(t *testing.T, dir, name string, keywords map[string]string) {
	t.Helper()
	h := &fitshdr.Header{}
	h.SetNumber("SIMPLE", "T", "")
	h.SetNumber("BITPIX", "8", "")
	h.SetNumber("NAXIS", "0", "")
	for k, v := range keywords {
		h.SetString(k, v, "")
	}
	data := h.Encode()
	if strings.HasSuffix(name, ".gz") {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		zw := gzip.NewWriter(f)
		_, err = zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())
		return
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func readHeader(t *testing.T, dir, name string) *fitshdr.Header {
	t.Helper()
	h, err := fitshdr.NewReader().Header(filepath.Join(dir, name))
	require.NoError(t, err)
	return h
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "light.fits", map[string]string{
		"IMAGETYP": "Light Frame",
		"DATE-OBS": "2000-01-01T12:00:00",
		"OBJCTRA":  "05 34 31.94",
		"OBJCTDEC": "+22 00 52.2",
	})
	writeFrame(t, dir, "bias.fits", map[string]string{
		"IMAGETYP": "Bias Frame",
		"DATE-OBS": "2000-01-01T12:00:00",
	})
	writeFrame(t, dir, "packed.fits.gz", map[string]string{
		"IMAGETYP": "Bias Frame",
		"DATE-OBS": "2000-01-01T12:00:00",
	})
	writeFrame(t, dir, "nora.fits", map[string]string{
		"IMAGETYP": "LIGHT",
		"DATE-OBS": "2000-01-01T12:00:00",
	})
	writeFrame(t, dir, "nodate.fits", map[string]string{
		"IMAGETYP": "Bias Frame",
	})

	result, err := Run(context.Background(), dir, Options{
		Site:       testSite,
		Compressed: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bias-new.fits", "light-new.fits"}, result.Patched)
	assert.Equal(t, []string{"nora.fits", "packed.fits.gz"}, result.Skipped)
	require.Contains(t, result.Failed, "nodate.fits")
	assert.Equal(t, herderrors.ErrCodeMissingHeaderValue,
		herderrors.GetCode(result.Failed["nodate.fits"]))

	light := readHeader(t, dir, "light-new.fits")
	jd, _ := light.Get(KeyJD)
	assert.Equal(t, "2451545.000000", jd)
	mjd, _ := light.Get(KeyMJD)
	assert.Equal(t, "51544.500000", mjd)
	lat, _ := light.Get(KeyLatitude)
	assert.Equal(t, "+46:52:00.41", lat)
	altitude, _ := light.Get(KeyAltitude)
	assert.Equal(t, "311", altitude)
	assert.True(t, light.Has(KeyLST))
	assert.True(t, light.Has(KeyAltObj))
	assert.True(t, light.Has(KeyAzObj))
	assert.True(t, light.Has(KeyHA))

	am, _ := light.Get(KeyAirmass)
	_, err = strconv.ParseFloat(am, 64)
	assert.NoError(t, err)

	// Bias frames get site and time keywords only.
	bias := readHeader(t, dir, "bias-new.fits")
	assert.True(t, bias.Has(KeyJD))
	assert.True(t, bias.Has(KeyLST))
	assert.False(t, bias.Has(KeyAirmass))
	assert.False(t, bias.Has(KeyAltObj))

	// HISTORY cards record what was touched.
	var histories []string
	for _, c := range light.Cards() {
		if c.Name == "HISTORY" {
			histories = append(histories, c.Value)
		}
	}
	require.Len(t, histories, 3)
	assert.Contains(t, histories[1], KeyLST)
	assert.Contains(t, histories[2], KeyAirmass)

	// Inputs are untouched without overwrite.
	original := readHeader(t, dir, "light.fits")
	assert.False(t, original.Has(KeyJD))

	// The skipped light frame got no output file.
	assert.NoFileExists(t, filepath.Join(dir, "nora-new.fits"))
}

func TestRunOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "bias.fits", map[string]string{
		"IMAGETYP": "Bias Frame",
		"DATE-OBS": "2012-06-01T09:54:12",
	})

	result, err := Run(context.Background(), dir, Options{
		Site:      testSite,
		Overwrite: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bias.fits"}, result.Patched)

	h := readHeader(t, dir, "bias.fits")
	assert.True(t, h.Has(KeyJD))
	assert.True(t, h.Has(KeyMJD))
}

func TestRunPrefersManifest(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "a.fits", map[string]string{
		"IMAGETYP": "Bias Frame",
		"DATE-OBS": "2012-06-01T09:54:12",
	})
	writeFrame(t, dir, "b.fits", map[string]string{
		"IMAGETYP": "Bias Frame",
		"DATE-OBS": "2012-06-01T09:54:12",
	})
	manifest := "file,IMAGETYP\nb.fits,Bias Frame\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "Manifest.txt"), []byte(manifest), 0o644))

	result, err := Run(context.Background(), dir, Options{Site: testSite})
	require.NoError(t, err)

	assert.Equal(t, []string{"b-new.fits"}, result.Patched)
	assert.NoFileExists(t, filepath.Join(dir, "a-new.fits"))
}

func TestRunMissingDirectory(t *testing.T) {
	_, err := Run(context.Background(),
		filepath.Join(t.TempDir(), "absent"), Options{Site: testSite})
	require.Error(t, err)
	assert.Equal(t, herderrors.ErrCodeDirNotFound, herderrors.GetCode(err))
}
