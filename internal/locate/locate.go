// Package locate finds files in a search scope that declare or mention
// symbols.
package locate

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/mvp-joe/ctxpack/internal/discovery"
	"github.com/mvp-joe/ctxpack/internal/scope"
	"github.com/mvp-joe/ctxpack/internal/source"
	"github.com/mvp-joe/ctxpack/internal/symbols"
)

// Match is a file judged to declare (or mention) one or more symbols.
type Match struct {
	Path    string
	Symbols []string
}

// Result holds the matches of one locate pass in path order.
type Result struct {
	Matches  []Match
	Warnings []string
}

// Paths returns the matched file paths.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		paths[i] = m.Path
	}
	return paths
}

// Progress receives a tick for every file examined.
type Progress interface {
	OnFileScanned(path string)
}

// Locator scans a scope with a symbol matcher.
type Locator struct {
	discovery *discovery.FileDiscovery
	reader    source.Reader
	progress  Progress
}

// NewLocator creates a locator. progress may be nil.
func NewLocator(fd *discovery.FileDiscovery, reader source.Reader, progress Progress) *Locator {
	return &Locator{
		discovery: fd,
		reader:    reader,
		progress:  progress,
	}
}

// Scan walks every directory in sc and collects the files for which m
// reports at least one name. A file reachable from several roots is
// reported once. Unreadable directories and files become warnings.
func (l *Locator) Scan(ctx context.Context, sc scope.Scope, m symbols.Matcher) (*Result, error) {
	result := &Result{}
	seen := make(map[string]bool)

	onErr := func(path string, err error) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("skipping unreadable path %s: %v", path, err))
	}

	for _, dir := range sc {
		err := l.discovery.Walk(ctx, dir, onErr, func(path string) error {
			clean := filepath.Clean(path)
			if seen[clean] {
				return nil
			}
			seen[clean] = true

			if l.progress != nil {
				l.progress.OnFileScanned(path)
			}

			f, err := l.reader.Read(path)
			if err != nil {
				onErr(path, err)
				return nil
			}

			if names := m.Match(f.Content); len(names) > 0 {
				result.Matches = append(result.Matches, Match{Path: clean, Symbols: names})
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A root that cannot be walked is skipped, not fatal
			onErr(dir, err)
		}
	}

	sort.Slice(result.Matches, func(i, j int) bool { return result.Matches[i].Path < result.Matches[j].Path })
	return result, nil
}

// Definitions finds files declaring any of syms. An empty set yields an
// empty result without scanning.
func (l *Locator) Definitions(ctx context.Context, sc scope.Scope, syms symbols.Set) (*Result, error) {
	if syms.Len() == 0 {
		return &Result{}, nil
	}
	return l.Scan(ctx, sc, symbols.NewDeclarationMatcher(syms))
}

// References finds files mentioning name as a whole word.
func (l *Locator) References(ctx context.Context, sc scope.Scope, name string) (*Result, error) {
	if name == "" {
		return &Result{}, nil
	}
	return l.Scan(ctx, sc, symbols.NewReferenceMatcher(name))
}

// EnclosingSymbol names the type surrounding the instruction: the nearest
// declaration above the instruction line, or else the file's base name
// without its extension.
func EnclosingSymbol(path, content string, line int) string {
	if name, ok := symbols.EnclosingDeclaration(content, line); ok {
		return name
	}
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
