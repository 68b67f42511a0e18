package git

import (
	"fmt"
	"path/filepath"
)

// MockGitOps is a mock implementation of Operations for testing.
// Tracked and Diffs are keyed by the file path as passed to the method.
type MockGitOps struct {
	CurrentBranch  string
	AncestorBranch string
	WorktreeRoot   string
	WorktreeError  error
	Tracked        map[string]bool
	Diffs          map[string]string
	DiffErrors     map[string]error

	// DiffCalls records every file passed to DiffFile.
	DiffCalls []string
}

// NewMockGitOps creates a mock with sensible defaults.
func NewMockGitOps() *MockGitOps {
	return &MockGitOps{
		CurrentBranch:  "main",
		AncestorBranch: "",
		WorktreeRoot:   "/tmp/test-repo",
		Tracked:        map[string]bool{},
		Diffs:          map[string]string{},
		DiffErrors:     map[string]error{},
	}
}

func (m *MockGitOps) GetWorktreeRoot(projectPath string) (string, error) {
	if m.WorktreeError != nil {
		return "", m.WorktreeError
	}
	return m.WorktreeRoot, nil
}

func (m *MockGitOps) GetCurrentBranch(projectPath string) string {
	return m.CurrentBranch
}

func (m *MockGitOps) FindAncestorBranch(projectPath, currentBranch string) string {
	return m.AncestorBranch
}

func (m *MockGitOps) IsTracked(projectPath, file string) bool {
	return m.Tracked[filepath.Clean(file)]
}

func (m *MockGitOps) DiffFile(projectPath, branch, file string) (string, error) {
	file = filepath.Clean(file)
	m.DiffCalls = append(m.DiffCalls, file)
	if err := m.DiffErrors[file]; err != nil {
		return "", err
	}
	return m.Diffs[file], nil
}

// String returns a human-readable representation of the mock state.
func (m *MockGitOps) String() string {
	return fmt.Sprintf("MockGitOps{branch=%s, ancestor=%s, root=%s}",
		m.CurrentBranch, m.AncestorBranch, m.WorktreeRoot)
}
