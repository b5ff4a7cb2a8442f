package fitshdr

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

// newTestHeader builds a minimal dataless primary header.
func newTestHeader(keywords map[string]string) *Header {
	h := &Header{}
	h.SetNumber("SIMPLE", "T", "conforms to FITS standard")
	h.SetNumber("BITPIX", "8", "")
	h.SetNumber("NAXIS", "0", "")
	for name, value := range keywords {
		h.SetString(name, value, "")
	}
	return h
}

// writeTestFITS writes a header-only FITS file and returns its path.
func writeTestFITS(t *testing.T, dir, name string, keywords map[string]string) string {
	t.Helper()
	data := newTestHeader(keywords).Encode()
	if strings.HasSuffix(name, ".gz") {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		data = buf.Bytes()
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestEncodeBlockAlignment(t *testing.T) {
	h := newTestHeader(map[string]string{"IMAGETYP": "LIGHT"})
	data := h.Encode()

	assert.Equal(t, 0, len(data)%BlockSize)
	assert.Equal(t, BlockSize, len(data), "five cards fit one block")
}

func TestParseHeaderRoundTrip(t *testing.T) {
	h := &Header{}
	h.SetNumber("SIMPLE", "T", "conforms to FITS standard")
	h.SetNumber("BITPIX", "16", "")
	h.SetNumber("NAXIS", "0", "")
	h.SetString("IMAGETYP", "Bias Frame", "frame type")
	h.SetString("OBSERVER", "O'Neill", "")
	h.SetNumber("EXPTIME", "30.0", "exposure in seconds")
	h.AddHistory("created by test")

	parsed, err := ParseHeader(bytes.NewReader(h.Encode()))
	require.NoError(t, err)

	v, ok := parsed.Get("IMAGETYP")
	require.True(t, ok)
	assert.Equal(t, "Bias Frame", v)

	v, ok = parsed.Get("OBSERVER")
	require.True(t, ok)
	assert.Equal(t, "O'Neill", v, "escaped quote survives round trip")

	v, ok = parsed.Get("EXPTIME")
	require.True(t, ok)
	assert.Equal(t, "30.0", v)

	bitpix, ok := parsed.Int("BITPIX")
	require.True(t, ok)
	assert.Equal(t, 16, bitpix)

	// HISTORY cards are commentary, not values.
	_, ok = parsed.Get("HISTORY")
	assert.False(t, ok)

	var history []string
	for _, c := range parsed.Cards() {
		if c.Name == "HISTORY" {
			history = append(history, c.Value)
		}
	}
	assert.Equal(t, []string{"created by test"}, history)
}

func TestGetIsCaseInsensitive(t *testing.T) {
	h := newTestHeader(map[string]string{"IMAGETYP": "LIGHT"})

	for _, name := range []string{"IMAGETYP", "imagetyp", "ImageTyp"} {
		v, ok := h.Get(name)
		require.True(t, ok, "lookup %q", name)
		assert.Equal(t, "LIGHT", v)
	}
}

func TestSetReplacesExisting(t *testing.T) {
	h := newTestHeader(map[string]string{"FILTER": "R"})
	before := len(h.Cards())

	h.SetString("filter", "B", "")

	assert.Len(t, h.Cards(), before)
	v, _ := h.Get("FILTER")
	assert.Equal(t, "B", v)
}

func TestParseHeaderInlineComment(t *testing.T) {
	h := &Header{}
	h.SetNumber("SIMPLE", "T", "")
	h.SetNumber("JD", "2455555.123456", "Julian Date at start of exposure")

	parsed, err := ParseHeader(bytes.NewReader(h.Encode()))
	require.NoError(t, err)

	v, ok := parsed.Get("JD")
	require.True(t, ok)
	assert.Equal(t, "2455555.123456", v)

	for _, c := range parsed.Cards() {
		if c.Name == "JD" {
			assert.Equal(t, "Julian Date at start of exposure", c.Comment)
		}
	}
}

func TestParseHeaderRejectsNonFITS(t *testing.T) {
	junk := bytes.Repeat([]byte("not a fits file at all.........."), 90)

	_, err := ParseHeader(bytes.NewReader(junk))
	require.Error(t, err)
	assert.Equal(t, herderrors.ErrCodeNotFITS, herderrors.GetCode(err))
}

func TestParseHeaderTruncated(t *testing.T) {
	_, err := ParseHeader(bytes.NewReader([]byte("SIMPLE  =                    T")))
	require.Error(t, err)
	assert.Equal(t, herderrors.ErrCodeNotFITS, herderrors.GetCode(err))
}

func TestParseHeaderStopsAtBlockBoundary(t *testing.T) {
	h := newTestHeader(map[string]string{"IMAGETYP": "LIGHT"})
	data := append(h.Encode(), bytes.Repeat([]byte{0x17}, BlockSize)...)

	r := bytes.NewReader(data)
	_, err := ParseHeader(r)
	require.NoError(t, err)

	// Everything after the header blocks is untouched data.
	assert.Equal(t, BlockSize, r.Len())
}

func TestReaderGzip(t *testing.T) {
	dir := t.TempDir()
	writeTestFITS(t, dir, "a.fits.gz", map[string]string{"IMAGETYP": "LIGHT"})

	m, err := NewReader().ReadHeader(filepath.Join(dir, "a.fits.gz"))
	require.NoError(t, err)
	assert.Equal(t, "LIGHT", m["IMAGETYP"])
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader().ReadHeader(filepath.Join(t.TempDir(), "nope.fits"))
	require.Error(t, err)
	assert.Equal(t, herderrors.ErrCodeFileUnreadable, herderrors.GetCode(err))
}

func TestCachedReaderHitSkipsDisk(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFITS(t, dir, "a.fits", map[string]string{"FILTER": "V"})

	cr, err := NewCachedReader()
	require.NoError(t, err)

	m, err := cr.ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, "V", m["FILTER"])

	// Remove the file: a second read must come from cache.
	require.NoError(t, os.Remove(path))
	m, err = cr.ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, "V", m["FILTER"])

	// After invalidation the miss surfaces as a per-file error.
	cr.Invalidate(path)
	_, err = cr.ReadHeader(path)
	assert.Error(t, err)
}

func TestRewriteAddsKeywordsAndPreservesData(t *testing.T) {
	h := newTestHeader(map[string]string{"IMAGETYP": "LIGHT"})
	data := bytes.Repeat([]byte{0x42}, BlockSize)
	src := append(h.Encode(), data...)

	var dst bytes.Buffer
	err := Rewrite(bytes.NewReader(src), &dst, func(h *Header) error {
		h.SetNumber("JD", "2455555.123456", "Julian Date")
		h.AddHistory("patched by test")
		return nil
	})
	require.NoError(t, err)

	out := dst.Bytes()
	require.Equal(t, 0, len(out)%BlockSize)

	parsed, err := ParseHeader(bytes.NewReader(out))
	require.NoError(t, err)
	v, ok := parsed.Get("JD")
	require.True(t, ok)
	assert.Equal(t, "2455555.123456", v)

	// Data blocks follow the new header unchanged.
	assert.Equal(t, data, out[len(out)-BlockSize:])
}

func TestKeywordLookupAliases(t *testing.T) {
	h := newTestHeader(map[string]string{"OBJCTRA": "05 34 31"})

	v, ok := KeyRA.Lookup(h)
	require.True(t, ok)
	assert.Equal(t, "05 34 31", v)

	assert.True(t, KeyRA.Present(h))
	assert.False(t, KeyDec.Present(h))

	_, ok = KeyObject.Lookup(h)
	assert.False(t, ok)
}
