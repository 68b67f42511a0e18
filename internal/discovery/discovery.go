// Package discovery walks source trees, selecting files by extension and
// skipping ignored paths.
package discovery

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	// rootGlob is the pattern with a leading "**/" removed, nil otherwise
	rootGlob glob.Glob
}

// FileDiscovery handles file discovery with extension filters and ignore rules.
type FileDiscovery struct {
	extensions     map[string]bool
	ignorePatterns []compiledPattern
}

// WalkFunc is called for every eligible file. Returning an error stops the walk.
type WalkFunc func(path string) error

// ErrorFunc is called for paths that could not be read during a walk.
// The walk continues past them.
type ErrorFunc func(path string, err error)

// New creates a file discovery instance. Extensions carry a leading dot;
// ignore patterns are gobwas globs matched against slash-separated paths
// relative to the walked root.
func New(extensions, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		extensions: make(map[string]bool, len(extensions)),
	}

	for _, ext := range extensions {
		fd.extensions[strings.ToLower(ext)] = true
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if strings.HasPrefix(pattern, "**/") {
			if rg, err := glob.Compile(strings.TrimPrefix(pattern, "**/"), '/'); err == nil {
				cp.rootGlob = rg
			}
		}
		fd.ignorePatterns = append(fd.ignorePatterns, cp)
	}

	return fd, nil
}

// Extensions returns the configured extensions in sorted order.
func (fd *FileDiscovery) Extensions() []string {
	exts := make([]string, 0, len(fd.extensions))
	for ext := range fd.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Eligible reports whether path has one of the configured extensions.
func (fd *FileDiscovery) Eligible(path string) bool {
	return fd.extensions[strings.ToLower(filepath.Ext(path))]
}

// Walk visits eligible files under rootDir in lexical order. Unreadable
// entries are reported through onErr (when non-nil) and skipped; an
// unreadable rootDir is returned as an error.
func (fd *FileDiscovery) Walk(ctx context.Context, rootDir string, onErr ErrorFunc, fn WalkFunc) error {
	return filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootDir {
				return err
			}
			if onErr != nil {
				onErr(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path != rootDir && fd.IgnoreDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !fd.Eligible(path) {
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}

		return fn(path)
	})
}

// Files returns every eligible file under rootDir.
func (fd *FileDiscovery) Files(ctx context.Context, rootDir string, onErr ErrorFunc) ([]string, error) {
	files := []string{}
	err := fd.Walk(ctx, rootDir, onErr, func(path string) error {
		files = append(files, path)
		return nil
	})
	return files, err
}

// IgnoreDir reports whether a directory (relative, slash-separated) is
// excluded together with everything beneath it.
func (fd *FileDiscovery) IgnoreDir(relPath string) bool {
	// "node_modules" should match pattern "**/node_modules/**"
	return fd.matchesAnyPattern(relPath + "/**")
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	return fd.matchesAnyPattern(relPath)
}

// matchesAnyPattern checks if a path matches any of the ignore patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string) bool {
	for _, cp := range fd.ignorePatterns {
		if cp.glob.Match(path) {
			return true
		}
		// "**/x" also has to match "x" at the root, which the glob alone
		// rejects because of the required separator.
		if cp.rootGlob != nil && cp.rootGlob.Match(path) {
			return true
		}
	}

	return false
}
