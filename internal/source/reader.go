// Package source reads source files for the assembly stages. A single run
// touches the same files several times (marker scan, symbol matching,
// assembly), and watch/MCP sessions repeat runs, so reads go through a
// content cache validated against each file's modification time and size.
package source

import (
	"fmt"
	"os"
	"time"

	"github.com/maypok86/otter"
)

// DefaultCacheBytes bounds the total size of cached file contents.
const DefaultCacheBytes = 64 * 1024 * 1024

// File is the content of a source file together with the metadata the
// cache is keyed on.
type File struct {
	Path    string
	Content string
	ModTime time.Time
	Size    int64
}

// Reader loads source files.
type Reader interface {
	Read(path string) (File, error)
}

// OSReader reads straight from disk with no caching.
type OSReader struct{}

// Read implements Reader.
func (OSReader) Read(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return File{Path: path, Content: string(data), ModTime: info.ModTime(), Size: info.Size()}, nil
}

// CachedReader is a Reader backed by an otter cache whose cost is the
// content length in bytes.
type CachedReader struct {
	cache  otter.Cache[string, File]
	hits   int
	misses int
}

// NewCachedReader creates a reader caching up to maxBytes of content.
func NewCachedReader(maxBytes int) (*CachedReader, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultCacheBytes
	}

	cache, err := otter.MustBuilder[string, File](maxBytes).
		Cost(func(key string, value File) uint32 {
			// Empty files still occupy a slot
			if len(value.Content) == 0 {
				return 1
			}
			return uint32(len(value.Content))
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build file cache: %w", err)
	}

	return &CachedReader{cache: cache}, nil
}

// Read returns the cached content when the file's modification time and
// size are unchanged, and re-reads it otherwise.
func (r *CachedReader) Read(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		r.cache.Delete(path)
		return File{}, err
	}

	if f, ok := r.cache.Get(path); ok && f.ModTime.Equal(info.ModTime()) && f.Size == info.Size() {
		r.hits++
		return f, nil
	}
	r.misses++

	data, err := os.ReadFile(path)
	if err != nil {
		r.cache.Delete(path)
		return File{}, err
	}

	f := File{Path: path, Content: string(data), ModTime: info.ModTime(), Size: info.Size()}
	// Files larger than the whole cache are simply not retained
	r.cache.Set(path, f)
	return f, nil
}

// Stats returns the number of cache hits and misses since creation.
func (r *CachedReader) Stats() (hits, misses int) {
	return r.hits, r.misses
}

// Close releases the cache.
func (r *CachedReader) Close() {
	r.cache.Close()
}
