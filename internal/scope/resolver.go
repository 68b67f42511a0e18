// Package scope decides which directories a run searches for definitions.
package scope

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mvp-joe/ctxpack/internal/discovery"
)

// Scope is an ordered, deduplicated list of directories. The first entry
// is the primary root.
type Scope []string

// Resolver resolves the search scope for an instruction file.
type Resolver struct {
	// PackageMarkers are file names that mark a package boundary.
	PackageMarkers []string
	// WholeRepo forces the top-level root as the primary root.
	WholeRepo bool

	discovery *discovery.FileDiscovery
}

// NewResolver creates a resolver. fd supplies the ignore rules used when
// enumerating nested packages.
func NewResolver(markers []string, wholeRepo bool, fd *discovery.FileDiscovery) *Resolver {
	return &Resolver{
		PackageMarkers: markers,
		WholeRepo:      wholeRepo,
		discovery:      fd,
	}
}

// Resolve returns the scope for instructionPath inside topRoot, together
// with warnings for directories that could not be read.
func (r *Resolver) Resolve(instructionPath, topRoot string) (Scope, []string) {
	var warnings []string

	primary := topRoot
	if !r.WholeRepo {
		if pkg, ok := r.PackageRoot(filepath.Dir(instructionPath), topRoot); ok {
			primary = pkg
		}
	}

	dirs := Scope{primary}
	seen := map[string]bool{filepath.Clean(primary): true}

	nested, walkWarnings := r.nestedPackages(primary)
	warnings = append(warnings, walkWarnings...)
	for _, dir := range nested {
		clean := filepath.Clean(dir)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		dirs = append(dirs, dir)
	}

	return dirs, warnings
}

// PackageRoot walks upward from dir, never leaving topRoot, and returns
// the nearest directory holding a package marker.
func (r *Resolver) PackageRoot(dir, topRoot string) (string, bool) {
	top := filepath.Clean(topRoot)
	dir = filepath.Clean(dir)

	if !within(dir, top) {
		return "", false
	}

	for {
		if r.hasMarker(dir) {
			return dir, true
		}
		if dir == top {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// nestedPackages lists descendants of root holding a package marker, in
// lexical order, skipping ignored directories.
func (r *Resolver) nestedPackages(root string) ([]string, []string) {
	var found, warnings []string

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, "skipping unreadable directory "+path+": "+err.Error())
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if r.discovery != nil && r.discovery.IgnoreDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}

		if r.hasMarker(path) {
			found = append(found, path)
		}
		return nil
	})

	sort.Strings(found)
	return found, warnings
}

func (r *Resolver) hasMarker(dir string) bool {
	for _, m := range r.PackageMarkers {
		if info, err := os.Stat(filepath.Join(dir, m)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// within reports whether path is top or below it.
func within(path, top string) bool {
	rel, err := filepath.Rel(top, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
