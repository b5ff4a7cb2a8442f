// Package collection indexes a directory of FITS files by header-keyword
// values and answers set-intersection queries over that index.
//
// A Collection is built once per directory scan. Keywords supplied at
// construction are "tracked": their values are cached in a columnar summary
// table, one row per file. Queries over tracked keywords run against the
// cache with no file I/O; queries touching any untracked keyword re-scan
// the directory into a throwaway table that is never merged back.
package collection

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
	"github.com/fitsherd/fitsherd/internal/fitshdr"
)

// FileColumn is the pseudo-keyword naming the file column of the summary.
const FileColumn = "file"

// Wildcard matches any non-empty header value in a query.
const Wildcard = "*"

// DefaultExtensions are the filename extensions recognized as FITS files.
var DefaultExtensions = []string{"fit", "fits"}

// HeaderReader supplies keyword-to-value pairs from a file's primary
// header. Implemented by fitshdr.Reader and fitshdr.CachedReader.
type HeaderReader interface {
	ReadHeader(path string) (map[string]string, error)
}

// DirectoryLister enumerates candidate file names in a directory.
type DirectoryLister interface {
	ListFiles(dir string, extensions []string) ([]string, error)
}

// Options configures a Collection.
type Options struct {
	// Keywords are the header keywords to track (eagerly cache).
	Keywords []string

	// Extensions are filename extensions treated as FITS files
	// (without dot). Defaults to DefaultExtensions.
	Extensions []string

	// Compressed includes .gz variants of each extension.
	Compressed bool

	// StorageDir is an explicit directory for persisted snapshots of the
	// index. Empty with StorageSameDir false disables persistence.
	StorageDir string

	// StorageSameDir stores snapshots alongside the images, in the
	// collection location itself.
	StorageSameDir bool

	// Manifest is the manifest file name inside the location.
	// Defaults to DefaultManifestName.
	Manifest string

	// Reader reads file headers. Defaults to fitshdr.NewReader().
	Reader HeaderReader

	// Lister lists directory entries. Defaults to an os.ReadDir lister.
	Lister DirectoryLister
}

// Collection is an index of one directory's FITS files.
type Collection struct {
	location   string
	storageDir string
	keywords   []string
	extensions []string
	files      []string
	unreadable map[string]bool
	summary    map[string][]string
	reader     HeaderReader
	lister     DirectoryLister
}

// New scans location and builds a Collection. The summary table is
// computed eagerly when opts.Keywords is non-empty.
func New(location string, opts Options) (*Collection, error) {
	opts = withDefaults(opts)

	storageDir, err := validateStorage(location, opts)
	if err != nil {
		return nil, err
	}

	files, err := opts.Lister.ListFiles(location, expandExtensions(opts))
	if err != nil {
		return nil, err
	}

	c := &Collection{
		location:   location,
		storageDir: storageDir,
		keywords:   canonicalKeywords(opts.Keywords),
		extensions: opts.Extensions,
		files:      files,
		unreadable: map[string]bool{},
		summary:    map[string][]string{},
		reader:     opts.Reader,
		lister:     opts.Lister,
	}

	if len(c.keywords) > 0 {
		c.summary, c.unreadable = c.scan(c.keywords)
	}
	return c, nil
}

// Location returns the directory this collection indexes.
func (c *Collection) Location() string {
	return c.location
}

// StorageDir returns the validated snapshot directory, or empty when
// persistence is disabled.
func (c *Collection) StorageDir() string {
	return c.storageDir
}

// Keywords returns the tracked keywords, canonicalized to uppercase.
func (c *Collection) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

// Files returns the indexed file names (names only, not paths).
func (c *Collection) Files() []string {
	return append([]string(nil), c.files...)
}

// Unreadable returns the files whose headers could not be read during the
// tracked-keyword scan. They remain in Files with all-empty summary rows.
func (c *Collection) Unreadable() []string {
	var out []string
	for _, f := range c.files {
		if c.unreadable[f] {
			out = append(out, f)
		}
	}
	return out
}

// Summary returns a copy of the cached summary table. Every column has
// exactly len(Files()) entries; the FileColumn column equals Files().
func (c *Collection) Summary() map[string][]string {
	if len(c.summary) == 0 {
		return map[string][]string{}
	}
	out := make(map[string][]string, len(c.summary))
	for k, col := range c.summary {
		out[k] = append([]string(nil), col...)
	}
	return out
}

// Values returns the cached values for a tracked keyword, in file order.
// With unique set, duplicates are dropped (first occurrence kept).
// Untracked keywords are an error: this accessor never touches disk.
func (c *Collection) Values(keyword string, unique bool) ([]string, error) {
	key := canonicalKeyword(keyword)
	if !c.tracked(key) {
		return nil, herderrors.New(herderrors.ErrCodeKeywordNotTracked,
			"keyword "+keyword+" is not tracked by this collection", nil)
	}

	col := c.summary[key]
	if !unique {
		return append([]string(nil), col...), nil
	}

	seen := make(map[string]bool, len(col))
	var out []string
	for _, v := range col {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}

// FilesWithKeys returns files where every given keyword has a non-empty
// value. An empty argument means all tracked keywords.
func (c *Collection) FilesWithKeys(keywords []string) ([]string, error) {
	if len(keywords) == 0 {
		keywords = c.keywords
	}
	values := make([]string, len(keywords))
	for i := range values {
		values[i] = Wildcard
	}
	return c.findByKeyValues(keywords, values)
}

// FilesWithKeyValues returns files where, for every (keyword, value) pair,
// the header value equals the target case-insensitively. The Wildcard
// value matches any non-empty value. Pairs AND together.
func (c *Collection) FilesWithKeyValues(keywords, values []string) ([]string, error) {
	if len(keywords) != len(values) {
		return nil, herderrors.New(herderrors.ErrCodeQueryMismatch,
			"keywords and values must have the same length", nil)
	}
	return c.findByKeyValues(keywords, values)
}

// findByKeyValues evaluates the query against the cached summary when every
// requested keyword is tracked; otherwise it re-scans the directory for
// exactly the requested keyword set. The fresh table is evaluation-only and
// is not cached back into the summary.
func (c *Collection) findByKeyValues(keywords, values []string) ([]string, error) {
	keys := canonicalKeywords(keywords)

	table := c.summary
	if !c.allTracked(keys) {
		table, _ = c.scan(keys)
	}

	matched := make(map[int]bool, len(c.files))
	for i := range c.files {
		matched[i] = true
	}

	for pair, key := range keys {
		col := table[key]
		want := values[pair]
		for i := range c.files {
			if !matched[i] {
				continue
			}
			var ok bool
			if want == Wildcard {
				ok = col[i] != ""
			} else {
				ok = strings.EqualFold(col[i], want)
			}
			if !ok {
				delete(matched, i)
			}
		}
	}

	var out []string
	for i, f := range c.files {
		if matched[i] {
			out = append(out, f)
		}
	}
	return out, nil
}

// scan reads every file's header for the given keywords and builds a
// column-aligned table. A file whose header cannot be read keeps its row
// with empty values in every keyword column, so columns never shrink out
// of step with the file list; failures are logged and recorded, never
// fatal.
func (c *Collection) scan(keywords []string) (map[string][]string, map[string]bool) {
	table := make(map[string][]string, len(keywords)+1)
	table[FileColumn] = append([]string(nil), c.files...)
	for _, k := range keywords {
		table[k] = make([]string, 0, len(c.files))
	}
	unreadable := map[string]bool{}

	for _, name := range c.files {
		hdr, err := c.reader.ReadHeader(filepath.Join(c.location, name))
		if err != nil {
			slog.Warn("skipping unreadable file",
				slog.String("file", name),
				slog.String("dir", c.location),
				slog.String("error", err.Error()))
			unreadable[name] = true
			for _, k := range keywords {
				table[k] = append(table[k], "")
			}
			continue
		}
		for _, k := range keywords {
			table[k] = append(table[k], hdr[k])
		}
	}
	return table, unreadable
}

func (c *Collection) tracked(key string) bool {
	for _, k := range c.keywords {
		if k == key {
			return true
		}
	}
	return false
}

func (c *Collection) allTracked(keys []string) bool {
	for _, k := range keys {
		if !c.tracked(k) {
			return false
		}
	}
	return true
}

// validateStorage resolves the snapshot directory and probes writability by
// creating and removing a temporary file. Returns empty when persistence is
// disabled.
func validateStorage(location string, opts Options) (string, error) {
	dir := opts.StorageDir
	if dir == "" {
		if !opts.StorageSameDir {
			return "", nil
		}
		dir = location
	}

	probe, err := os.CreateTemp(dir, ".fitsherd-probe-*")
	if err != nil {
		return "", herderrors.New(herderrors.ErrCodeStorageNotWritable,
			"storage directory "+dir+" is not writable", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return dir, nil
}

func withDefaults(opts Options) Options {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Manifest == "" {
		opts.Manifest = DefaultManifestName
	}
	if opts.Reader == nil {
		opts.Reader = fitshdr.NewReader()
	}
	if opts.Lister == nil {
		opts.Lister = osLister{}
	}
	return opts
}

func expandExtensions(opts Options) []string {
	exts := append([]string(nil), opts.Extensions...)
	if opts.Compressed {
		for _, e := range opts.Extensions {
			exts = append(exts, e+".gz")
		}
	}
	return exts
}

func canonicalKeyword(k string) string {
	if strings.EqualFold(k, FileColumn) {
		return FileColumn
	}
	return strings.ToUpper(strings.TrimSpace(k))
}

func canonicalKeywords(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = canonicalKeyword(k)
	}
	return out
}

// osLister is the default DirectoryLister: non-recursive, case-sensitive
// suffix match on "." + extension.
type osLister struct{}

func (osLister) ListFiles(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, herderrors.New(herderrors.ErrCodeDirNotFound,
			"cannot list directory "+dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, ext := range extensions {
			if strings.HasSuffix(name, "."+ext) {
				files = append(files, name)
				break
			}
		}
	}
	return files, nil
}
