package instruction

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNoInstructionFound is returned when no file in scope carries the marker.
var ErrNoInstructionFound = errors.New("no instruction found")

// Instruction is the active marker comment driving a run.
type Instruction struct {
	Path    string
	Line    int // 1-indexed
	Text    string
	ModTime time.Time
	Content string
}

// Ignored is a marker file that lost to a more recently modified one.
type Ignored struct {
	Path string `yaml:"path"`
	Text string `yaml:"text"`
}

// Located is the outcome of a successful Locate.
type Located struct {
	Instruction Instruction
	Ignored     []Ignored
	Warnings    []string
}

// Locate scans root and selects the active instruction.
func Locate(ctx context.Context, s *Scanner, root string) (*Located, error) {
	matches, warnings, err := s.Scan(ctx, root)
	if err != nil {
		return nil, err
	}

	chosen, ignored, err := Choose(matches)
	if err != nil {
		return nil, err
	}

	return &Located{
		Instruction: chosen,
		Ignored:     ignored,
		Warnings:    warnings,
	}, nil
}

// Choose picks the most recently modified match. Identical modification
// times resolve to the lexicographically smallest path so the choice is
// stable for a fixed tree. Every other match is returned as ignored, in
// path order.
func Choose(matches []Match) (Instruction, []Ignored, error) {
	if len(matches) == 0 {
		return Instruction{}, nil, ErrNoInstructionFound
	}

	best := 0
	for i := 1; i < len(matches); i++ {
		m, b := matches[i], matches[best]
		if m.ModTime.After(b.ModTime) || (m.ModTime.Equal(b.ModTime) && m.Path < b.Path) {
			best = i
		}
	}

	var ignored []Ignored
	for i, m := range matches {
		if i == best {
			continue
		}
		ignored = append(ignored, Ignored{Path: m.Path, Text: m.Text})
	}
	sort.Slice(ignored, func(i, j int) bool { return ignored[i].Path < ignored[j].Path })

	m := matches[best]
	return Instruction{
		Path:    m.Path,
		Line:    m.Line,
		Text:    m.Text,
		ModTime: m.ModTime,
		Content: m.Content,
	}, ignored, nil
}
