// Package symbols extracts candidate type names from source text and
// recognises their declarations and mentions. It is a lexical heuristic,
// not a parser: extraction over-approximates and declaration matching
// filters the false positives out.
package symbols

import (
	"regexp"
	"strings"
)

// Tokenizer yields candidate symbol names from source text.
type Tokenizer interface {
	Symbols(content string) Set
}

// importDirectives start lines that only pull in other modules.
var importDirectives = []string{
	"import",
	"@import",
	"@testable",
	"@_exported",
	"#import",
	"#include",
	"include",
	"using",
	"use",
	"from",
	"require",
}

var (
	capitalizedRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9]+$`)
	// [Widget] as in a Swift array type or an attribute list
	bracketedRe = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9]*)\]`)
)

// LexicalTokenizer keeps capitalized identifiers and single-element
// bracketed names.
type LexicalTokenizer struct{}

// NewTokenizer returns the default tokenizer.
func NewTokenizer() Tokenizer {
	return LexicalTokenizer{}
}

// Symbols implements Tokenizer.
func (LexicalTokenizer) Symbols(content string) Set {
	set := NewSet()

	for _, line := range strings.Split(content, "\n") {
		if isImportLine(line) {
			continue
		}

		for _, m := range bracketedRe.FindAllStringSubmatch(line, -1) {
			set.Add(m[1])
		}

		for _, tok := range strings.Fields(strings.Map(alnumOrSpace, line)) {
			if capitalizedRe.MatchString(tok) {
				set.Add(tok)
			}
		}
	}

	return set
}

func alnumOrSpace(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	default:
		return ' '
	}
}

func isImportLine(line string) bool {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "#include") || strings.HasPrefix(t, "#import") {
		return true
	}
	first, _, _ := strings.Cut(t, " ")
	first, _, _ = strings.Cut(first, "\t")
	for _, d := range importDirectives {
		if first == d {
			return true
		}
	}
	return false
}
