package assemble

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Tier is the priority class of a candidate file. Lower tiers are packed
// first; Primary is exempt from the budget.
type Tier int

const (
	// TierPrimary files are named in the instruction text.
	TierPrimary Tier = iota + 1
	// TierSegmentAffine files share the instruction file's leading name segment.
	TierSegmentAffine
	// TierRootAffine files' names contain, or are contained in, the instruction file's name.
	TierRootAffine
	// TierOther is everything else.
	TierOther
)

// Tiers lists every tier in packing order.
var Tiers = []Tier{TierPrimary, TierSegmentAffine, TierRootAffine, TierOther}

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSegmentAffine:
		return "segment"
	case TierRootAffine:
		return "root"
	case TierOther:
		return "other"
	default:
		return "unknown"
	}
}

// Classifier assigns tiers relative to one instruction.
type Classifier struct {
	instructionText    string
	instructionBase    string
	instructionSegment string
}

// NewClassifier creates a classifier for the instruction found in
// instructionPath whose marker line reads instructionText.
func NewClassifier(instructionPath, instructionText string) *Classifier {
	base := BaseName(instructionPath)
	return &Classifier{
		instructionText:    instructionText,
		instructionBase:    base,
		instructionSegment: LeadingSegment(base),
	}
}

// Classify returns the tier of path. Tiers are tested in order and the
// first that applies wins.
func (c *Classifier) Classify(path string) Tier {
	base := BaseName(path)
	if base == "" {
		return TierOther
	}

	if containsWord(c.instructionText, base) {
		return TierPrimary
	}

	seg := LeadingSegment(base)
	if seg != "" && c.instructionSegment != "" &&
		(strings.HasPrefix(seg, c.instructionSegment) || strings.HasPrefix(c.instructionSegment, seg)) {
		return TierSegmentAffine
	}

	if c.instructionBase != "" &&
		(strings.Contains(c.instructionBase, base) || strings.Contains(base, c.instructionBase)) {
		return TierRootAffine
	}

	return TierOther
}

// BaseName is the file name without directory and extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LeadingSegment is the prefix of name up to the next capital letter after
// the first rune: "HandleView" → "Handle", "todoList" → "todo".
func LeadingSegment(name string) string {
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			return name[:i]
		}
	}
	return name
}

// containsWord reports whether word occurs in text with no word character
// ([0-9A-Za-z_]) on either side. "Widget" is not in "WidgetView".
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; from <= len(text)-len(word); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
