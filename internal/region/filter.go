// Package region extracts the marker-delimited visible regions of a file.
package region

import "strings"

// Placeholder is the line standing in for elided code.
const Placeholder = "// ..."

// Filter keeps only the lines between opening and closing marker lines.
type Filter struct {
	open  map[string]bool
	close map[string]bool
}

// NewFilter creates a filter. A line is a marker when, trimmed, it equals
// one of the given spellings.
func NewFilter(open, close []string) *Filter {
	f := &Filter{
		open:  make(map[string]bool, len(open)),
		close: make(map[string]bool, len(close)),
	}
	for _, m := range open {
		f.open[strings.TrimSpace(m)] = true
	}
	for _, m := range close {
		f.close[strings.TrimSpace(m)] = true
	}
	return f
}

// HasRegions reports whether content contains an opening marker line.
func (f *Filter) HasRegions(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if f.open[strings.TrimSpace(line)] {
			return true
		}
	}
	return false
}

// Apply returns content reduced to its regions. Elided spans become a
// single placeholder block (blank line, Placeholder, blank line); two
// placeholder blocks never follow each other. Content without an opening
// marker is returned unchanged.
func (f *Filter) Apply(content string) string {
	if !f.HasRegions(content) {
		return content
	}

	lines := strings.Split(content, "\n")
	trailingNewline := strings.HasSuffix(content, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}

	var out []string
	inRegion := false
	// skipped: non-blank lines were dropped since the last emitted line.
	// closed: a region ended since the last emitted line.
	skipped, closed := false, false
	lastWasPlaceholder := false

	placeholder := func() {
		if lastWasPlaceholder {
			return
		}
		out = append(out, "", Placeholder, "")
		lastWasPlaceholder = true
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case f.open[trimmed]:
			if !inRegion {
				if skipped || closed {
					placeholder()
				}
				inRegion = true
				skipped, closed = false, false
			}
		case f.close[trimmed]:
			if inRegion {
				inRegion = false
				closed = true
			}
		case inRegion:
			out = append(out, line)
			lastWasPlaceholder = false
		default:
			if trimmed != "" {
				skipped = true
			}
		}
	}

	// Trailing code after the last region is elided too
	if !inRegion && closed && skipped {
		placeholder()
	}

	result := strings.Join(out, "\n")
	if trailingNewline {
		result += "\n"
	}
	return result
}
