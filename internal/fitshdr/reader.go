package fitshdr

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	herderrors "github.com/fitsherd/fitsherd/internal/errors"
)

// headerCacheSize bounds the parsed-header LRU so repeated passes over a
// directory (triage then summary then queries) open each file once without
// growing memory on large archives.
const headerCacheSize = 2048

// Reader reads primary headers from FITS files, gzip-compressed or not.
// It implements the collection.HeaderReader contract.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Header parses the primary header of the file at path.
func (r *Reader) Header(path string) (*Header, error) {
	rc, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return ParseHeader(rc)
}

// ReadHeader returns keyword-to-value pairs from the file's primary header.
func (r *Reader) ReadHeader(path string) (map[string]string, error) {
	h, err := r.Header(path)
	if err != nil {
		return nil, err
	}
	return h.Map(), nil
}

// openMaybeGzip opens a file, transparently decompressing .gz suffixes.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, herderrors.New(herderrors.ErrCodeFileUnreadable,
			"cannot open "+path, err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, herderrors.New(herderrors.ErrCodeFileUnreadable,
			"cannot decompress "+path, err)
	}
	return &gzipReadCloser{zr: zr, f: f}, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// CachedReader wraps Reader with an LRU cache of parsed headers keyed by
// file path. Callers must treat returned headers as read-only; the patch
// pipeline parses its own copies via Rewrite.
type CachedReader struct {
	inner *Reader
	cache *lru.Cache[string, *Header]
}

// NewCachedReader creates a CachedReader with the default cache size.
func NewCachedReader() (*CachedReader, error) {
	cache, err := lru.New[string, *Header](headerCacheSize)
	if err != nil {
		return nil, herderrors.InternalError("creating header cache", err)
	}
	return &CachedReader{inner: NewReader(), cache: cache}, nil
}

// Header returns the parsed header for path, from cache when possible.
func (c *CachedReader) Header(path string) (*Header, error) {
	if h, ok := c.cache.Get(path); ok {
		return h, nil
	}
	h, err := c.inner.Header(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(path, h)
	return h, nil
}

// ReadHeader returns keyword-to-value pairs, from cache when possible.
func (c *CachedReader) ReadHeader(path string) (map[string]string, error) {
	h, err := c.Header(path)
	if err != nil {
		return nil, err
	}
	return h.Map(), nil
}

// Invalidate drops any cached header for path. Used after patching a file
// in place.
func (c *CachedReader) Invalidate(path string) {
	c.cache.Remove(path)
}
