// Package engine runs the full context assembly pipeline once: locate the
// instruction, extract symbols, resolve scope, find definitions (and
// optionally references) and assemble the bundle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mvp-joe/ctxpack/internal/assemble"
	"github.com/mvp-joe/ctxpack/internal/config"
	"github.com/mvp-joe/ctxpack/internal/discovery"
	"github.com/mvp-joe/ctxpack/internal/git"
	"github.com/mvp-joe/ctxpack/internal/instruction"
	"github.com/mvp-joe/ctxpack/internal/locate"
	"github.com/mvp-joe/ctxpack/internal/region"
	"github.com/mvp-joe/ctxpack/internal/scope"
	"github.com/mvp-joe/ctxpack/internal/source"
	"github.com/mvp-joe/ctxpack/internal/symbols"
)

// ErrNoRepositoryRoot is returned when no top-level root can be established.
var ErrNoRepositoryRoot = errors.New("no repository root")

// AutoDiffBranch asks the engine to diff against the ancestor branch
// (main or master) of the current branch.
const AutoDiffBranch = "auto"

// Result is the bundle of one run together with its diagnostics.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Root      string

	Instruction instruction.Instruction
	Ignored     []instruction.Ignored
	Symbols     []string
	Scope       scope.Scope

	Definitions []locate.Match
	// Enclosing is the symbol references were searched for; empty when
	// references are disabled.
	Enclosing  string
	References []locate.Match

	// DiffBranch is the resolved baseline; empty when diffs are disabled.
	DiffBranch string

	Bundle   *assemble.Bundle
	Warnings []string
}

// Engine runs the pipeline with a fixed configuration.
type Engine struct {
	cfg       *config.Config
	git       git.Operations
	reader    source.Reader
	tokenizer symbols.Tokenizer
	progress  locate.Progress
}

// New creates an engine. reader is shared by every stage so that a
// caching reader serves repeated reads of the same file.
func New(cfg *config.Config, gitOps git.Operations, reader source.Reader) *Engine {
	if reader == nil {
		reader = source.OSReader{}
	}
	return &Engine{
		cfg:       cfg,
		git:       gitOps,
		reader:    reader,
		tokenizer: symbols.NewTokenizer(),
	}
}

// WithProgress reports every file examined by the definition and
// reference scans to p.
func (e *Engine) WithProgress(p locate.Progress) *Engine {
	e.progress = p
	return e
}

// ResolveRoot establishes the top-level root: explicit when given,
// otherwise the git worktree containing workDir.
func ResolveRoot(gitOps git.Operations, explicit, workDir string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoRepositoryRoot, err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a directory", ErrNoRepositoryRoot, explicit)
		}
		return abs, nil
	}

	root, err := gitOps.GetWorktreeRoot(workDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoRepositoryRoot, err)
	}
	return root, nil
}

// Run executes one assembly rooted at root. Only a missing instruction,
// an invalid configuration or cancellation fail the run; everything else
// degrades to warnings.
func (e *Engine) Run(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	fd, err := discovery.New(e.cfg.Paths.Extensions, e.cfg.Paths.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to create file discovery: %w", err)
	}

	result := &Result{
		RunID:     uuid.New().String(),
		StartedAt: start,
		Root:      root,
	}

	// Instruction
	scanner := instruction.NewScanner(e.cfg.Marker.Instruction, fd, e.reader)
	located, err := instruction.Locate(ctx, scanner, root)
	if err != nil {
		return nil, err
	}
	result.Instruction = located.Instruction
	result.Ignored = located.Ignored
	result.Warnings = append(result.Warnings, located.Warnings...)

	// Symbols and scope
	syms := e.tokenizer.Symbols(located.Instruction.Content)
	result.Symbols = syms.Sorted()

	resolver := scope.NewResolver(e.cfg.Scope.PackageMarkers, e.cfg.Scope.WholeRepo, fd)
	sc, scopeWarnings := resolver.Resolve(located.Instruction.Path, root)
	result.Scope = sc
	result.Warnings = append(result.Warnings, scopeWarnings...)

	// Definitions and references
	locator := locate.NewLocator(fd, e.reader, e.progress)
	defs, err := locator.Definitions(ctx, sc, syms)
	if err != nil {
		return nil, fmt.Errorf("definition scan failed: %w", err)
	}
	result.Definitions = defs.Matches
	result.Warnings = append(result.Warnings, defs.Warnings...)

	candidates := []string{located.Instruction.Path}
	candidates = append(candidates, defs.Paths()...)

	if e.cfg.Scope.References {
		result.Enclosing = locate.EnclosingSymbol(located.Instruction.Path, located.Instruction.Content, located.Instruction.Line)
		refs, err := locator.References(ctx, sc, result.Enclosing)
		if err != nil {
			return nil, fmt.Errorf("reference scan failed: %w", err)
		}
		result.References = refs.Matches
		result.Warnings = append(result.Warnings, refs.Warnings...)
		candidates = append(candidates, refs.Paths()...)
	}

	// Assembly
	var regions assemble.RegionFilter
	if e.cfg.Output.Regions {
		regions = region.NewFilter(e.cfg.Marker.RegionOpen, e.cfg.Marker.RegionClose)
	}

	var differ assemble.Differ
	if branch, warning := e.diffBranch(root); branch != "" {
		result.DiffBranch = branch
		differ = &gitDiffer{ops: e.git, root: root, branch: branch}
	} else if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}

	asm := assemble.New(e.reader, regions, differ)
	bundle, err := asm.Assemble(candidates, assemble.Options{
		Root:   root,
		Marker: e.cfg.Marker.Instruction,
		Instruction: assemble.Instruction{
			Path:    located.Instruction.Path,
			Text:    located.Instruction.Text,
			Content: located.Instruction.Content,
		},
		Budget: assemble.Budget{
			Limit:         e.cfg.Budget.Limit,
			WarnThreshold: e.cfg.Budget.WarnThreshold,
		},
		Trailer:    e.cfg.Output.Trailer,
		DiffBranch: result.DiffBranch,
	})
	if err != nil {
		return nil, fmt.Errorf("assembly failed: %w", err)
	}
	result.Bundle = bundle
	result.Warnings = append(result.Warnings, bundle.Warnings...)

	result.Duration = time.Since(start)
	return result, nil
}

// diffBranch resolves the configured baseline. The second return value
// explains why diffs are disabled when a branch was requested.
func (e *Engine) diffBranch(root string) (string, string) {
	branch := e.cfg.Diff.Branch
	if branch == "" {
		return "", ""
	}
	if e.git == nil {
		return "", "diffs disabled: git is unavailable"
	}
	if branch == AutoDiffBranch {
		current := e.git.GetCurrentBranch(root)
		ancestor := e.git.FindAncestorBranch(root, current)
		if ancestor == "" {
			return "", fmt.Sprintf("diffs disabled: no main or master ancestor for branch %s", current)
		}
		return ancestor, ""
	}
	return branch, ""
}

// gitDiffer diffs files against a branch, skipping untracked ones.
type gitDiffer struct {
	ops    git.Operations
	root   string
	branch string
}

func (d *gitDiffer) Diff(path string) (string, error) {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return "", err
	}
	if !d.ops.IsTracked(d.root, rel) {
		return "", nil
	}
	return d.ops.DiffFile(d.root, d.branch, rel)
}
