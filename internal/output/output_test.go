package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterPlainByDefaultForBuffers(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf, false)

	w.Header("Files")
	w.Good("all good")

	// A buffer is not a terminal, so no escape codes appear.
	out := buf.String()
	assert.Equal(t, "Files\nall good\n", out)
	assert.NotContains(t, out, "\x1b[")
}

func TestCheckList(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf, true)

	w.CheckList("needs FILTER", nil)
	w.CheckList("needs OBJECT", []string{"a.fits", "b.fits"})

	out := buf.String()
	assert.Contains(t, out, "ok needs FILTER")
	assert.Contains(t, out, "!! needs OBJECT (2)")
	assert.Contains(t, out, "  a.fits\n  b.fits\n")
}

func TestTable(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf, true)

	w.Table([]string{"file", "IMAGETYP"}, map[string][]string{
		"file":     {"a.fits", "longer-name.fits"},
		"IMAGETYP": {"LIGHT", "BIAS"},
	})

	assert.Equal(t,
		"file              IMAGETYP\n"+
			"a.fits            LIGHT\n"+
			"longer-name.fits  BIAS\n",
		buf.String())
}

func TestSortedKeys(t *testing.T) {
	m := map[string][]string{"b": nil, "a": nil, "c": nil}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
}
