package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/ctxpack/internal/assemble"
	"github.com/mvp-joe/ctxpack/internal/instruction"
	"gopkg.in/yaml.v3"
)

// Report is the machine-readable form of a run's diagnostics.
type Report struct {
	RunID       string                `yaml:"run_id"`
	StartedAt   time.Time             `yaml:"started_at"`
	DurationMS  int64                 `yaml:"duration_ms"`
	Root        string                `yaml:"root"`
	Instruction ReportInstruction     `yaml:"instruction"`
	Ignored     []instruction.Ignored `yaml:"ignored,omitempty"`
	Symbols     []string              `yaml:"symbols"`
	Scope       []string              `yaml:"scope"`
	Enclosing   string                `yaml:"enclosing,omitempty"`
	DiffBranch  string                `yaml:"diff_branch,omitempty"`
	Files       []ReportFile          `yaml:"files"`
	Chopped     []assemble.Chopped    `yaml:"chopped,omitempty"`
	Suggestions []assemble.Suggestion `yaml:"suggestions,omitempty"`
	Size        int                   `yaml:"size"`
	Warnings    []string              `yaml:"warnings,omitempty"`
}

// ReportInstruction locates the active instruction.
type ReportInstruction struct {
	Path string `yaml:"path"`
	Line int    `yaml:"line"`
	Text string `yaml:"text"`
}

// ReportFile is one block of the bundle.
type ReportFile struct {
	Path        string `yaml:"path"`
	Tier        string `yaml:"tier"`
	Size        int    `yaml:"size"`
	Instruction bool   `yaml:"instruction,omitempty"`
	Diff        bool   `yaml:"diff,omitempty"`
}

// Report builds the report for r. Paths are relative to the root.
func (r *Result) Report() *Report {
	rep := &Report{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Root:       r.Root,
		Instruction: ReportInstruction{
			Path: r.rel(r.Instruction.Path),
			Line: r.Instruction.Line,
			Text: r.Instruction.Text,
		},
		Symbols:    r.Symbols,
		Scope:      r.Scope,
		Enclosing:  r.Enclosing,
		DiffBranch: r.DiffBranch,
		Warnings:   r.Warnings,
	}

	for _, ig := range r.Ignored {
		rep.Ignored = append(rep.Ignored, instruction.Ignored{Path: r.rel(ig.Path), Text: ig.Text})
	}

	if r.Bundle != nil {
		for _, b := range r.Bundle.Blocks {
			tier := b.Tier.String()
			if b.Instruction {
				tier = "instruction"
			}
			rep.Files = append(rep.Files, ReportFile{
				Path:        b.Rel,
				Tier:        tier,
				Size:        b.Size,
				Instruction: b.Instruction,
				Diff:        b.HasDiff,
			})
		}
		rep.Chopped = r.Bundle.Chopped
		rep.Suggestions = r.Bundle.Suggestions
		rep.Size = r.Bundle.Size
	}
	return rep
}

// WriteReport writes the YAML report for r to path.
func WriteReport(path string, r *Result) error {
	data, err := yaml.Marshal(r.Report())
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *Result) rel(path string) string {
	rel, err := filepath.Rel(r.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
