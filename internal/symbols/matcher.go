package symbols

import (
	"regexp"
	"sort"
	"strings"
)

// DeclarationKeywords introduce class-, struct-, enum-, protocol- and
// alias-like declarations.
var DeclarationKeywords = []string{
	"class",
	"struct",
	"enum",
	"protocol",
	"interface",
	"typealias",
	"type",
}

var keywordAlternation = strings.Join(DeclarationKeywords, "|")

// typeDeclarationRe captures a capitalized declared name. Lowercase
// captures are modifiers or prose, as in `class func` or `type of`.
var typeDeclarationRe = regexp.MustCompile(`\b(?:` + keywordAlternation + `)[ \t]+([A-Z_][A-Za-z0-9_]*)`)

// Matcher reports which names a piece of source text matches.
type Matcher interface {
	// Match returns the matched names in lexical order; nil when none.
	Match(content string) []string
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m *regexMatcher) Match(content string) []string {
	if m.re == nil {
		return nil
	}
	found := NewSet()
	for _, sm := range m.re.FindAllStringSubmatch(content, -1) {
		found.Add(sm[1])
	}
	if found.Len() == 0 {
		return nil
	}
	return found.Sorted()
}

// NewDeclarationMatcher matches a declaration keyword followed by one of
// the symbols as a whole word. All symbols share a single alternation so a
// file is scanned once regardless of how many symbols there are. An empty
// set matches nothing.
func NewDeclarationMatcher(symbols Set) Matcher {
	if symbols.Len() == 0 {
		return &regexMatcher{}
	}
	return &regexMatcher{
		re: regexp.MustCompile(`\b(?:` + keywordAlternation + `)[ \t]+(` + alternation(symbols) + `)\b`),
	}
}

// NewReferenceMatcher matches name as a whole word anywhere.
func NewReferenceMatcher(name string) Matcher {
	if name == "" {
		return &regexMatcher{}
	}
	return &regexMatcher{
		re: regexp.MustCompile(`\b(` + regexp.QuoteMeta(name) + `)\b`),
	}
}

// EnclosingDeclaration returns the name declared by the nearest
// declaration line above line (1-indexed). Comments are not searched.
func EnclosingDeclaration(content string, line int) (string, bool) {
	lines := strings.Split(content, "\n")
	if line > len(lines) {
		line = len(lines)
	}
	for i := line - 2; i >= 0; i-- {
		code := stripComment(lines[i])
		if code == "" {
			continue
		}
		if m := typeDeclarationRe.FindStringSubmatch(code); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// stripComment drops a trailing // comment and blanks lines that are
// entirely comment.
func stripComment(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"//", "/*", "*", "#"} {
		if strings.HasPrefix(trimmed, prefix) {
			return ""
		}
	}
	if i := strings.Index(trimmed, "//"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}

// alternation quotes symbols longest first so overlapping names resolve to
// the longest candidate.
func alternation(symbols Set) string {
	names := symbols.Sorted()
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return strings.Join(quoted, "|")
}
