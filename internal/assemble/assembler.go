// Package assemble packs the instruction file and its related files into a
// single prompt bundle under a character budget.
package assemble

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/ctxpack/internal/source"
)

// Budget bounds the bundle. Limit gates inclusion; WarnThreshold only
// triggers exclusion suggestions. Zero disables either.
type Budget struct {
	Limit         int
	WarnThreshold int
}

// RegionFilter reduces a file to its visible regions.
type RegionFilter interface {
	Apply(content string) string
}

// Differ produces a diff report for a file against the baseline. An empty
// report means untracked or unchanged.
type Differ interface {
	Diff(path string) (string, error)
}

// Instruction identifies the active instruction for an assembly.
type Instruction struct {
	Path    string
	Text    string
	Content string
}

// Options configures one assembly.
type Options struct {
	// Root is the directory headers are made relative to.
	Root        string
	Marker      string
	Instruction Instruction
	Budget      Budget
	Trailer     string
	// DiffBranch labels diff sections; diffs are only requested when
	// the assembler has a Differ.
	DiffBranch string
}

// Chopped is a file left out because it did not fit the budget.
type Chopped struct {
	Path string `yaml:"path"`
	Rel  string `yaml:"rel"`
	Tier string `yaml:"tier"`
	Size int    `yaml:"size"`
}

// Bundle is the assembled prompt and what went into it.
type Bundle struct {
	Text        string
	Size        int
	Blocks      []Block
	Chopped     []Chopped
	Suggestions []Suggestion
	Warnings    []string
}

// Assembler builds bundles.
type Assembler struct {
	reader  source.Reader
	regions RegionFilter
	differ  Differ
}

// New creates an assembler. regions and differ may be nil to disable
// region filtering and diff augmentation.
func New(reader source.Reader, regions RegionFilter, differ Differ) *Assembler {
	return &Assembler{
		reader:  reader,
		regions: regions,
		differ:  differ,
	}
}

// Assemble renders the instruction block followed by the candidate files.
// Candidates are deduplicated and the instruction file is skipped among
// them. Without a budget every block is kept in candidate order. With one,
// Primary blocks are always kept and the remaining tiers are packed
// greedily in tier order; blocks that would overflow are reported as
// chopped. The trailer is appended once and is not charged to the budget.
func (a *Assembler) Assemble(candidates []string, opts Options) (*Bundle, error) {
	if opts.Instruction.Path == "" {
		return nil, fmt.Errorf("assemble: instruction path is required")
	}

	bundle := &Bundle{}
	classifier := NewClassifier(opts.Instruction.Path, opts.Instruction.Text)

	instrBlock := a.buildBlock(opts.Instruction.Path, scrubMarkers(opts.Instruction.Content, opts.Marker, true), true, opts, bundle)
	instrBlock.Tier = TierPrimary

	seen := map[string]bool{filepath.Clean(opts.Instruction.Path): true}
	var blocks []Block
	for _, path := range candidates {
		clean := filepath.Clean(path)
		if seen[clean] {
			continue
		}
		seen[clean] = true

		f, err := a.reader.Read(path)
		if err != nil {
			bundle.Warnings = append(bundle.Warnings, fmt.Sprintf("skipping unreadable file %s: %v", path, err))
			continue
		}

		content := scrubMarkers(f.Content, opts.Marker, false)
		if a.regions != nil {
			content = a.regions.Apply(content)
		}

		b := a.buildBlock(path, content, false, opts, bundle)
		b.Tier = classifier.Classify(path)
		blocks = append(blocks, b)
	}

	bundle.Blocks = append(bundle.Blocks, instrBlock)
	if opts.Budget.Limit <= 0 {
		bundle.Blocks = append(bundle.Blocks, blocks...)
	} else {
		a.pack(bundle, blocks, instrBlock.Size, opts.Budget.Limit)
	}

	parts := make([]string, 0, len(bundle.Blocks)+1)
	for _, b := range bundle.Blocks {
		parts = append(parts, b.Text)
	}
	parts = append(parts, withNewline(opts.Trailer))
	bundle.Text = strings.Join(parts, "\n")
	bundle.Size = charCount(bundle.Text)

	bundle.Suggestions = Suggest(bundle, opts.Budget.WarnThreshold)
	return bundle, nil
}

// pack appends blocks tier by tier. used is what the instruction block
// already consumed.
func (a *Assembler) pack(bundle *Bundle, blocks []Block, used, limit int) {
	for _, tier := range Tiers {
		for _, b := range blocks {
			if b.Tier != tier {
				continue
			}
			if tier == TierPrimary || used+b.Size <= limit {
				bundle.Blocks = append(bundle.Blocks, b)
				used += b.Size
				continue
			}
			bundle.Chopped = append(bundle.Chopped, Chopped{
				Path: b.Path,
				Rel:  b.Rel,
				Tier: b.Tier.String(),
				Size: b.Size,
			})
		}
	}
}

func (a *Assembler) buildBlock(path, body string, isInstruction bool, opts Options, bundle *Bundle) Block {
	rel := relativeTo(opts.Root, path)

	var diff string
	if a.differ != nil {
		d, err := a.differ.Diff(path)
		if err != nil {
			bundle.Warnings = append(bundle.Warnings, fmt.Sprintf("diff failed for %s: %v", rel, err))
		} else {
			diff = d
		}
	}

	text := renderBlock(rel, FenceLanguage(path), body, diff, opts.DiffBranch)
	return Block{
		Path:        path,
		Rel:         rel,
		Instruction: isInstruction,
		HasDiff:     diff != "",
		Text:        text,
		Size:        charCount(text),
	}
}

func relativeTo(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
