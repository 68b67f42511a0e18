// Package instruction finds the single active instruction comment in a
// source tree.
package instruction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mvp-joe/ctxpack/internal/discovery"
	"github.com/mvp-joe/ctxpack/internal/source"
)

// Match is a file containing the marker, described by its first matching line.
type Match struct {
	Path    string
	Line    int // 1-indexed
	Text    string
	ModTime time.Time
	Content string
}

// Scanner finds marker lines across a tree.
type Scanner struct {
	marker    string
	discovery *discovery.FileDiscovery
	reader    source.Reader
}

// NewScanner creates a scanner for the given marker sentinel.
func NewScanner(marker string, fd *discovery.FileDiscovery, reader source.Reader) *Scanner {
	return &Scanner{
		marker:    marker,
		discovery: fd,
		reader:    reader,
	}
}

// Scan walks root and returns one Match per file containing the marker, in
// path order. Files that cannot be read are skipped and described in the
// returned warnings.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Match, []string, error) {
	var matches []Match
	var warnings []string

	onErr := func(path string, err error) {
		warnings = append(warnings, fmt.Sprintf("skipping unreadable path %s: %v", path, err))
	}

	err := s.discovery.Walk(ctx, root, onErr, func(path string) error {
		f, err := s.reader.Read(path)
		if err != nil {
			onErr(path, err)
			return nil
		}

		line, text, ok := FirstMarkerLine(f.Content, s.marker)
		if !ok {
			return nil
		}

		matches = append(matches, Match{
			Path:    path,
			Line:    line,
			Text:    text,
			ModTime: f.ModTime,
			Content: f.Content,
		})
		return nil
	})
	if err != nil {
		return nil, warnings, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return matches, warnings, nil
}

// FirstMarkerLine returns the 1-indexed number and trimmed text of the
// first line containing marker.
func FirstMarkerLine(content, marker string) (int, string, bool) {
	if marker == "" {
		return 0, "", false
	}
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(line, marker) {
			return i + 1, strings.TrimSpace(line), true
		}
	}
	return 0, "", false
}
