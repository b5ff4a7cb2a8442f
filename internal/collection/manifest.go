package collection

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

// DefaultManifestName is the manifest file name inside a collection
// location.
const DefaultManifestName = "Manifest.txt"

// Manifest is a persisted listing of a directory's files and keyword
// values: a comma-delimited table whose first column is FileColumn.
type Manifest struct {
	// Columns holds the column names in file order; Columns[0] is
	// FileColumn, the rest are uppercase keyword names.
	Columns []string
	// Rows holds one row per file, aligned with Columns.
	Rows [][]string
}

// Files returns the file column of the manifest.
func (m *Manifest) Files() []string {
	files := make([]string, len(m.Rows))
	for i, row := range m.Rows {
		files[i] = row[0]
	}
	return files
}

// Table returns the manifest as a summary-shaped column table.
func (m *Manifest) Table() map[string][]string {
	table := make(map[string][]string, len(m.Columns))
	for j, col := range m.Columns {
		values := make([]string, len(m.Rows))
		for i, row := range m.Rows {
			values[i] = row[j]
		}
		table[col] = values
	}
	return table
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, herderrors.New(herderrors.ErrCodeManifestInvalid,
			"cannot open manifest "+path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, herderrors.New(herderrors.ErrCodeManifestInvalid,
			"cannot parse manifest "+path, err)
	}
	if len(records) == 0 {
		return nil, herderrors.New(herderrors.ErrCodeManifestInvalid,
			"manifest "+path+" is empty", nil)
	}

	columns := records[0]
	if !strings.EqualFold(columns[0], FileColumn) {
		return nil, herderrors.New(herderrors.ErrCodeManifestInvalid,
			"manifest "+path+" must have \"file\" as its first column", nil)
	}
	columns = canonicalColumns(columns)

	return &Manifest{Columns: columns, Rows: records[1:]}, nil
}

// WriteManifest persists the collection's file list and tracked keyword
// columns. The write holds a sibling .lock file so concurrent triage and
// patch runs over the same directory cannot interleave writes.
func WriteManifest(path string, c *Collection) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return herderrors.New(herderrors.ErrCodeWriteFailed,
			"cannot lock manifest "+path, err)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.Create(path)
	if err != nil {
		return herderrors.New(herderrors.ErrCodeWriteFailed,
			"cannot create manifest "+path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	columns := append([]string{FileColumn}, c.Keywords()...)
	if err := w.Write(columns); err != nil {
		return herderrors.New(herderrors.ErrCodeWriteFailed, "writing manifest header", err)
	}

	summary := c.Summary()
	for i, file := range c.Files() {
		row := make([]string, len(columns))
		row[0] = file
		for j, key := range columns[1:] {
			row[j+1] = summary[key][i]
		}
		if err := w.Write(row); err != nil {
			return herderrors.New(herderrors.ErrCodeWriteFailed, "writing manifest row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return herderrors.New(herderrors.ErrCodeWriteFailed, "flushing manifest", err)
	}
	return nil
}

// Load builds a Collection for location, preferring an existing manifest
// over a fresh directory scan. A present manifest is authoritative: its
// file list and keyword columns become the collection's summary.
func Load(location string, opts Options) (*Collection, error) {
	opts = withDefaults(opts)

	path := filepath.Join(location, opts.Manifest)
	if _, err := os.Stat(path); err != nil {
		return New(location, opts)
	}

	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}

	storageDir, err := validateStorage(location, opts)
	if err != nil {
		return nil, err
	}

	c := &Collection{
		location:   location,
		storageDir: storageDir,
		keywords:   m.Columns[1:],
		extensions: opts.Extensions,
		files:      m.Files(),
		unreadable: map[string]bool{},
		summary:    m.Table(),
		reader:     opts.Reader,
		lister:     opts.Lister,
	}
	return c, nil
}

func canonicalColumns(columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		if i == 0 {
			out[i] = FileColumn
			continue
		}
		out[i] = canonicalKeyword(col)
	}
	return out
}
