package assemble

import (
	"fmt"
	"sort"
)

// Suggestion estimates the effect of excluding one included file.
type Suggestion struct {
	Path string `yaml:"path"`
	Rel  string `yaml:"rel"`
	// Saved is the number of characters removed from the bundle.
	Saved int `yaml:"saved"`
	// Percent is the resulting bundle size relative to the threshold.
	Percent int `yaml:"percent"`
}

func (s Suggestion) String() string {
	return fmt.Sprintf("excluding %s gets you to %d%% of threshold", s.Rel, s.Percent)
}

// Suggest returns exclusion suggestions when the bundle exceeds threshold,
// largest saving first. The instruction file is never suggested.
func Suggest(bundle *Bundle, threshold int) []Suggestion {
	if threshold <= 0 || bundle.Size <= threshold {
		return nil
	}

	var out []Suggestion
	for _, b := range bundle.Blocks {
		if b.Instruction {
			continue
		}
		// +1 for the separator joining the block to the next one
		saved := b.Size + 1
		out = append(out, Suggestion{
			Path:    b.Path,
			Rel:     b.Rel,
			Saved:   saved,
			Percent: (bundle.Size - saved) * 100 / threshold,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Saved != out[j].Saved {
			return out[i].Saved > out[j].Saved
		}
		return out[i].Path < out[j].Path
	})
	return out
}
