package engine

import (
	"fmt"
	"strings"
)

// Diagnostics renders the human-readable run summary written to stderr.
func (r *Result) Diagnostics() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Instruction: %s:%d\n", r.rel(r.Instruction.Path), r.Instruction.Line)
	fmt.Fprintf(&sb, "  %s\n", r.Instruction.Text)

	for _, ig := range r.Ignored {
		fmt.Fprintf(&sb, "Ignoring older instruction in %s: %s\n", r.rel(ig.Path), ig.Text)
	}

	if len(r.Symbols) > 0 {
		fmt.Fprintf(&sb, "Symbols: %s\n", strings.Join(r.Symbols, ", "))
	} else {
		sb.WriteString("Symbols: none\n")
	}

	scopeRels := make([]string, len(r.Scope))
	for i, dir := range r.Scope {
		scopeRels[i] = r.rel(dir)
	}
	fmt.Fprintf(&sb, "Scope: %s\n", strings.Join(scopeRels, ", "))

	if r.Enclosing != "" {
		fmt.Fprintf(&sb, "References to %s: %d files\n", r.Enclosing, len(r.References))
	}

	if r.Bundle == nil {
		return sb.String()
	}

	sb.WriteString("Files:\n")
	for _, b := range r.Bundle.Blocks {
		tier := b.Tier.String()
		if b.Instruction {
			tier = "instruction"
		}
		diff := ""
		if b.HasDiff {
			diff = fmt.Sprintf(", diff vs %s", r.DiffBranch)
		}
		fmt.Fprintf(&sb, "  %s (%s, %d chars%s)\n", b.Rel, tier, b.Size, diff)
	}

	for _, c := range r.Bundle.Chopped {
		fmt.Fprintf(&sb, "Chopped %s (%s, %d chars): over budget\n", c.Rel, c.Tier, c.Size)
	}

	fmt.Fprintf(&sb, "Bundle: %d chars\n", r.Bundle.Size)

	if len(r.Bundle.Suggestions) > 0 {
		sb.WriteString("Bundle exceeds the warning threshold:\n")
		for _, s := range r.Bundle.Suggestions {
			fmt.Fprintf(&sb, "  %s\n", s)
		}
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(&sb, "Warning: %s\n", w)
	}
	return sb.String()
}
