package instruction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvp-joe/ctxpack/internal/discovery"
	"github.com/mvp-joe/ctxpack/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Instruction Locator:
// - Zero marker lines yields ErrNoInstructionFound
// - Exactly one marker file is chosen regardless of its modification time
// - With several marker files the most recently modified one wins
// - Ignored files carry their own first matching line, trimmed
// - Identical modification times resolve to the smallest path, stably
// - Files in ignored directories are never scanned
// - FirstMarkerLine reports the first occurrence only
// - Running Locate twice on an unchanged tree gives the same answer

const marker = "// TODO: ai"

func newScanner(t *testing.T) *Scanner {
	t.Helper()
	fd, err := discovery.New([]string{".swift", ".ext"}, []string{"**/.build/**"})
	require.NoError(t, err)
	return NewScanner(marker, fd, source.OSReader{})
}

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestLocate_NoInstruction(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Widget.swift"), "struct Widget {}\n", time.Now())

	_, err := Locate(context.Background(), newScanner(t), root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInstructionFound))
}

func TestLocate_SingleMatchChosenRegardlessOfMtime(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	old := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(root, "Todo.swift"), "struct Todo {\n    // TODO: ai use Widget here\n}\n", old)
	writeFile(t, filepath.Join(root, "Widget.swift"), "struct Widget {}\n", time.Now())

	located, err := Locate(context.Background(), newScanner(t), root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "Todo.swift"), located.Instruction.Path)
	assert.Equal(t, 2, located.Instruction.Line)
	assert.Equal(t, "// TODO: ai use Widget here", located.Instruction.Text)
	assert.Empty(t, located.Ignored)
}

func TestLocate_NewestWins(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(root, "A.ext"), "  // TODO: ai older request  \n", base)
	writeFile(t, filepath.Join(root, "B.ext"), "// TODO: ai newer request\n", base.Add(time.Minute))
	writeFile(t, filepath.Join(root, "sub", "C.ext"), "x\n// TODO: ai oldest\n// TODO: ai second\n", base.Add(-time.Hour))

	located, err := Locate(context.Background(), newScanner(t), root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "B.ext"), located.Instruction.Path)
	assert.Equal(t, "// TODO: ai newer request", located.Instruction.Text)
	assert.Equal(t, []Ignored{
		{Path: filepath.Join(root, "A.ext"), Text: "// TODO: ai older request"},
		{Path: filepath.Join(root, "sub", "C.ext"), Text: "// TODO: ai oldest"},
	}, located.Ignored)
}

func TestLocate_SkipsIgnoredDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".build", "Dep.swift"), "// TODO: ai vendored\n", time.Now().Add(time.Hour))
	writeFile(t, filepath.Join(root, "App.swift"), "// TODO: ai real\n", time.Now())

	located, err := Locate(context.Background(), newScanner(t), root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "App.swift"), located.Instruction.Path)
	assert.Empty(t, located.Ignored)
}

func TestLocate_Deterministic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	same := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(root, "Zeta.swift"), "// TODO: ai z\n", same)
	writeFile(t, filepath.Join(root, "Alpha.swift"), "// TODO: ai a\n", same)

	first, err := Locate(context.Background(), newScanner(t), root)
	require.NoError(t, err)
	second, err := Locate(context.Background(), newScanner(t), root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "Alpha.swift"), first.Instruction.Path)
	assert.Equal(t, first.Instruction.Path, second.Instruction.Path)
	assert.Equal(t, first.Ignored, second.Ignored)
}

func TestChoose_TieBreakIndependentOfInputOrder(t *testing.T) {
	t.Parallel()

	same := time.Unix(1700000000, 0)
	a := Match{Path: "/r/a.swift", Text: "a", ModTime: same}
	b := Match{Path: "/r/b.swift", Text: "b", ModTime: same}

	chosen1, _, err := Choose([]Match{a, b})
	require.NoError(t, err)
	chosen2, _, err := Choose([]Match{b, a})
	require.NoError(t, err)

	assert.Equal(t, "/r/a.swift", chosen1.Path)
	assert.Equal(t, chosen1.Path, chosen2.Path)
}

func TestChoose_Empty(t *testing.T) {
	t.Parallel()

	_, _, err := Choose(nil)
	assert.ErrorIs(t, err, ErrNoInstructionFound)
}

func TestFirstMarkerLine(t *testing.T) {
	t.Parallel()

	content := "import UIKit\n\n\t// TODO: ai first  \n// TODO: ai second\n"
	line, text, ok := FirstMarkerLine(content, marker)
	require.True(t, ok)
	assert.Equal(t, 3, line)
	assert.Equal(t, "// TODO: ai first", text)

	_, _, ok = FirstMarkerLine("nothing here", marker)
	assert.False(t, ok)

	_, _, ok = FirstMarkerLine("anything", "")
	assert.False(t, ok)
}
