package assemble

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mvp-joe/ctxpack/internal/region"
	"github.com/mvp-joe/ctxpack/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Budgeted Assembler:
// - Without a budget every file is included in candidate order, followed by the trailer
// - The instruction block keeps only its first marker line; other blocks keep none
// - Duplicate candidates and the instruction file itself are emitted once
// - Primary files are included even when they alone exceed the budget
// - Non-primary tiers are packed greedily in tier order and overflow is chopped
// - Included blocks never exceed the budget when primary blocks fit
// - Region filtering applies to context files only
// - Diff sections follow the content of changed files; empty diffs add nothing
// - Diff failures become warnings
// - Unreadable candidates become warnings
// - Exclusion suggestions omit the instruction and are ordered by savings
// - Tier classification follows primary, segment, root, other precedence
// - Primary needs the file name as a whole word in the instruction text

const marker = "// TODO: ai"

type fakeReader map[string]string

func (f fakeReader) Read(path string) (source.File, error) {
	content, ok := f[path]
	if !ok {
		return source.File{}, errors.New("no such file")
	}
	return source.File{Path: path, Content: content}, nil
}

type fakeDiffer struct {
	diffs map[string]string
	fail  map[string]bool
}

func (d fakeDiffer) Diff(path string) (string, error) {
	if d.fail[path] {
		return "", errors.New("git exploded")
	}
	return d.diffs[path], nil
}

func instructionFor(path, content string) Instruction {
	text := ""
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, marker) {
			text = strings.TrimSpace(line)
			break
		}
	}
	return Instruction{Path: path, Text: text, Content: content}
}

func blockPaths(b *Bundle) []string {
	out := make([]string, 0, len(b.Blocks))
	for _, blk := range b.Blocks {
		out = append(out, blk.Rel)
	}
	return out
}

func TestAssemble_NoBudgetIncludesEverything(t *testing.T) {
	t.Parallel()

	todo := "struct Todo {\n    // TODO: ai use Widget\n}\n"
	reader := fakeReader{
		"/r/Definition.swift": "struct Widget {}\n",
	}

	b, err := New(reader, nil, nil).Assemble([]string{"/r/Todo.swift", "/r/Definition.swift"}, Options{
		Root:        "/r",
		Marker:      marker,
		Instruction: instructionFor("/r/Todo.swift", todo),
		Trailer:     "Do it.",
	})
	require.NoError(t, err)

	want := "File: Todo.swift\n```swift\n" + todo + "```\n" +
		"\n" +
		"File: Definition.swift\n```swift\nstruct Widget {}\n```\n" +
		"\n" +
		"Do it.\n"
	assert.Equal(t, want, b.Text)
	assert.Equal(t, []string{"Todo.swift", "Definition.swift"}, blockPaths(b))
	assert.Empty(t, b.Chopped)
	assert.Equal(t, charCount(want), b.Size)
}

func TestAssemble_MarkerScrubbing(t *testing.T) {
	t.Parallel()

	todo := "// TODO: ai first\nlet a = 1\n// TODO: ai pasted copy\n"
	reader := fakeReader{
		"/r/Other.swift": "struct Other {}\n// TODO: ai stale\n",
	}

	b, err := New(reader, nil, nil).Assemble([]string{"/r/Other.swift"}, Options{
		Root:        "/r",
		Marker:      marker,
		Instruction: instructionFor("/r/Todo.swift", todo),
	})
	require.NoError(t, err)

	require.Len(t, b.Blocks, 2)
	assert.Equal(t, 1, strings.Count(b.Blocks[0].Text, marker))
	assert.Contains(t, b.Blocks[0].Text, "// TODO: ai first")
	assert.NotContains(t, b.Blocks[0].Text, "pasted copy")
	assert.Equal(t, 0, strings.Count(b.Blocks[1].Text, marker))
	assert.Equal(t, 1, strings.Count(b.Text, marker))
}

func TestAssemble_Deduplicates(t *testing.T) {
	t.Parallel()

	reader := fakeReader{"/r/A.swift": "struct A {}\n"}
	b, err := New(reader, nil, nil).Assemble(
		[]string{"/r/Todo.swift", "/r/A.swift", "/r/./A.swift", "/r/A.swift"},
		Options{Root: "/r", Marker: marker, Instruction: instructionFor("/r/Todo.swift", "// TODO: ai\n")},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Todo.swift", "A.swift"}, blockPaths(b))
}

func TestAssemble_BudgetTiers(t *testing.T) {
	t.Parallel()

	todo := "// TODO: ai make Widget match the Theme\n"
	big := strings.Repeat("x", 400) + "\n"
	reader := fakeReader{
		"/r/Theme.swift":     big,
		"/r/Widget.swift":    "struct Widget {}\n",
		"/r/HandleBar.swift": "struct HandleBar {}\n",
		"/r/Handle.swift":    big,
		"/r/View.swift":      "struct View {}\n",
		"/r/Zebra.swift":     "struct Zebra {}\n",
	}
	candidates := []string{"/r/Zebra.swift", "/r/View.swift", "/r/Handle.swift", "/r/HandleBar.swift", "/r/Widget.swift", "/r/Theme.swift"}

	opts := Options{
		Root:        "/r",
		Marker:      marker,
		Instruction: instructionFor("/r/HandleView.swift", todo),
		Budget:      Budget{Limit: 300},
	}
	b, err := New(reader, nil, nil).Assemble(candidates, opts)
	require.NoError(t, err)

	// Theme alone blows the budget but primary files are always kept
	assert.Equal(t, []string{"HandleView.swift", "Widget.swift", "Theme.swift"}, blockPaths(b))

	var chopped, tiers []string
	for _, c := range b.Chopped {
		chopped = append(chopped, c.Rel)
		tiers = append(tiers, c.Tier)
		assert.Positive(t, c.Size)
	}
	assert.Equal(t, []string{"Handle.swift", "HandleBar.swift", "View.swift", "Zebra.swift"}, chopped)
	assert.Equal(t, []string{"segment", "segment", "root", "other"}, tiers)
}

func TestAssemble_GreedyPackingStaysUnderBudget(t *testing.T) {
	t.Parallel()

	todo := "// TODO: ai tidy up\n"
	reader := fakeReader{
		"/r/HandleBig.swift":   strings.Repeat("b", 200) + "\n",
		"/r/HandleSmall.swift": "s\n",
		"/r/ViewBig.swift":     strings.Repeat("v", 200) + "\n",
		"/r/Other.swift":       "o\n",
	}
	candidates := []string{"/r/HandleBig.swift", "/r/HandleSmall.swift", "/r/ViewBig.swift", "/r/Other.swift"}
	instr := instructionFor("/r/HandleView.swift", todo)

	unbounded, err := New(reader, nil, nil).Assemble(candidates, Options{Root: "/r", Marker: marker, Instruction: instr})
	require.NoError(t, err)
	sizes := map[string]int{}
	for _, blk := range unbounded.Blocks {
		sizes[blk.Rel] = blk.Size
	}

	// Room for the instruction, HandleBig and the two small files only
	limit := sizes["HandleView.swift"] + sizes["HandleBig.swift"] + sizes["HandleSmall.swift"] + sizes["Other.swift"]

	b, err := New(reader, nil, nil).Assemble(candidates, Options{
		Root: "/r", Marker: marker, Instruction: instr, Budget: Budget{Limit: limit},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"HandleView.swift", "HandleBig.swift", "HandleSmall.swift", "Other.swift"}, blockPaths(b))
	require.Len(t, b.Chopped, 1)
	assert.Equal(t, "ViewBig.swift", b.Chopped[0].Rel)

	total := 0
	for _, blk := range b.Blocks {
		total += blk.Size
	}
	assert.LessOrEqual(t, total, limit)
}

func TestAssemble_RegionsApplyToContextFilesOnly(t *testing.T) {
	t.Parallel()

	todo := "// v\n// TODO: ai keep me whole\nhidden()\n// ^\n"
	reader := fakeReader{
		"/r/Widget.swift": "import UIKit\n// v\nstruct Widget {}\n// ^\nfunc helper() {}\n",
	}
	filter := region.NewFilter([]string{"// v"}, []string{"// ^"})

	b, err := New(reader, filter, nil).Assemble([]string{"/r/Widget.swift"}, Options{
		Root: "/r", Marker: marker, Instruction: instructionFor("/r/Todo.swift", todo),
	})
	require.NoError(t, err)

	assert.Contains(t, b.Blocks[0].Text, "hidden()")
	assert.Equal(t,
		"File: Widget.swift\n```swift\n\n"+region.Placeholder+"\n\nstruct Widget {}\n\n"+region.Placeholder+"\n\n```\n",
		b.Blocks[1].Text)
}

func TestAssemble_Diffs(t *testing.T) {
	t.Parallel()

	reader := fakeReader{
		"/r/Changed.swift": "struct Changed {}\n",
		"/r/Same.swift":    "struct Same {}\n",
		"/r/Broken.swift":  "struct Broken {}\n",
	}
	differ := fakeDiffer{
		diffs: map[string]string{
			"/r/Changed.swift": "-old\n+new",
		},
		fail: map[string]bool{"/r/Broken.swift": true},
	}

	b, err := New(reader, nil, differ).Assemble(
		[]string{"/r/Changed.swift", "/r/Same.swift", "/r/Broken.swift"},
		Options{Root: "/r", Marker: marker, Instruction: instructionFor("/r/Todo.swift", "// TODO: ai\n"), DiffBranch: "main"},
	)
	require.NoError(t, err)
	require.Len(t, b.Blocks, 4)

	assert.Equal(t,
		"File: Changed.swift\n```swift\nstruct Changed {}\n```\n\nDiff of Changed.swift against main:\n```diff\n-old\n+new\n```\n",
		b.Blocks[1].Text)
	assert.True(t, b.Blocks[1].HasDiff)
	assert.False(t, b.Blocks[2].HasDiff)
	assert.NotContains(t, b.Blocks[2].Text, "Diff of")
	assert.False(t, b.Blocks[3].HasDiff)

	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "Broken.swift")
}

func TestAssemble_UnreadableCandidate(t *testing.T) {
	t.Parallel()

	b, err := New(fakeReader{}, nil, nil).Assemble([]string{"/r/Gone.swift"}, Options{
		Root: "/r", Marker: marker, Instruction: instructionFor("/r/Todo.swift", "// TODO: ai\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Todo.swift"}, blockPaths(b))
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "Gone.swift")
}

func TestAssemble_RequiresInstruction(t *testing.T) {
	t.Parallel()

	_, err := New(fakeReader{}, nil, nil).Assemble(nil, Options{})
	assert.Error(t, err)
}

func TestAssemble_Suggestions(t *testing.T) {
	t.Parallel()

	todo := strings.Repeat("i", 100) + "\n// TODO: ai\n"
	reader := fakeReader{
		"/r/Large.swift":  strings.Repeat("l", 300) + "\n",
		"/r/Medium.swift": strings.Repeat("m", 150) + "\n",
		"/r/Small.swift":  "s\n",
	}

	b, err := New(reader, nil, nil).Assemble([]string{"/r/Small.swift", "/r/Large.swift", "/r/Medium.swift"}, Options{
		Root: "/r", Marker: marker, Instruction: instructionFor("/r/Todo.swift", todo),
		Budget: Budget{WarnThreshold: 200},
	})
	require.NoError(t, err)

	require.Len(t, b.Suggestions, 3)
	assert.Equal(t, "Large.swift", b.Suggestions[0].Rel)
	assert.Equal(t, "Medium.swift", b.Suggestions[1].Rel)
	assert.Equal(t, "Small.swift", b.Suggestions[2].Rel)
	for i, s := range b.Suggestions {
		assert.NotEqual(t, "Todo.swift", s.Rel)
		assert.Equal(t, (b.Size-s.Saved)*100/200, s.Percent)
		if i > 0 {
			assert.GreaterOrEqual(t, b.Suggestions[i-1].Saved, s.Saved)
		}
	}
	assert.Equal(t, fmt.Sprintf("excluding Large.swift gets you to %d%% of threshold", b.Suggestions[0].Percent), b.Suggestions[0].String())
}

func TestAssemble_NoSuggestionsUnderThreshold(t *testing.T) {
	t.Parallel()

	b, err := New(fakeReader{"/r/A.swift": "a\n"}, nil, nil).Assemble([]string{"/r/A.swift"}, Options{
		Root: "/r", Marker: marker, Instruction: instructionFor("/r/Todo.swift", "// TODO: ai\n"),
		Budget: Budget{WarnThreshold: 100000},
	})
	require.NoError(t, err)
	assert.Nil(t, b.Suggestions)
}

func TestClassifier(t *testing.T) {
	t.Parallel()

	c := NewClassifier("/r/App/HandleView.swift", "// TODO: ai wire Settings into the Theme")

	tests := []struct {
		path string
		want Tier
	}{
		{"/r/App/Settings.swift", TierPrimary},
		{"/r/Theme/Theme.swift", TierPrimary},
		{"/r/App/HandleBar.swift", TierSegmentAffine},
		{"/r/App/Handles.swift", TierSegmentAffine},
		{"/r/App/View.swift", TierRootAffine},
		{"/r/App/MyHandleViewModel.swift", TierRootAffine},
		{"/r/App/Zebra.swift", TierOther},
		{"/r/App/SettingsStore.swift", TierOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.path), tt.path)
	}
}

func TestClassifier_PrimaryNeedsWholeWord(t *testing.T) {
	t.Parallel()

	c := NewClassifier("/r/App/Editor.swift", "// TODO: ai restyle the WidgetView and my_cache")

	assert.Equal(t, TierPrimary, c.Classify("/r/App/WidgetView.swift"))
	assert.NotEqual(t, TierPrimary, c.Classify("/r/App/Widget.swift"), "a prefix of a mentioned name is not a mention")
	assert.NotEqual(t, TierPrimary, c.Classify("/r/App/View.swift"), "a suffix of a mentioned name is not a mention")
	assert.Equal(t, TierPrimary, c.Classify("/r/App/my_cache.swift"))
	assert.NotEqual(t, TierPrimary, c.Classify("/r/App/cache.swift"), "underscore joins words")
}

func TestContainsWord(t *testing.T) {
	t.Parallel()

	assert.True(t, containsWord("use Theme.", "Theme"))
	assert.True(t, containsWord("Theme", "Theme"))
	assert.True(t, containsWord("ThemeKit and Theme", "Theme"), "a later whole-word hit counts")
	assert.False(t, containsWord("ThemeKit", "Theme"))
	assert.False(t, containsWord("theme", "Theme"))
	assert.False(t, containsWord("anything", ""))
}

func TestLeadingSegment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Handle", LeadingSegment("HandleView"))
	assert.Equal(t, "todo", LeadingSegment("todoList"))
	assert.Equal(t, "Widget", LeadingSegment("Widget"))
	assert.Equal(t, "", LeadingSegment(""))
}

func TestTierOrder(t *testing.T) {
	t.Parallel()

	assert.Less(t, TierPrimary, TierSegmentAffine)
	assert.Less(t, TierSegmentAffine, TierRootAffine)
	assert.Less(t, TierRootAffine, TierOther)
	assert.Equal(t, "primary", TierPrimary.String())
	assert.Equal(t, "other", TierOther.String())
}

func TestFenceLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "swift", FenceLanguage("a/B.swift"))
	assert.Equal(t, "typescript", FenceLanguage("x.TS"))
	assert.Equal(t, "zig", FenceLanguage("main.zig"))
}
