// Package git wraps the handful of git commands ctxpack needs: finding the
// worktree root, resolving the baseline branch and diffing files against it.
package git

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotRepository is returned when a path is not inside a git worktree.
var ErrNotRepository = errors.New("not a git repository")

// Operations defines the interface for git operations.
// This allows mocking git commands in tests.
type Operations interface {
	// GetWorktreeRoot returns the git worktree root path containing projectPath.
	// Returns ErrNotRepository when git cannot find one.
	GetWorktreeRoot(projectPath string) (string, error)

	// GetCurrentBranch returns the current branch name.
	// For detached HEAD, returns "detached-{short-hash}".
	// Returns "unknown" if all git commands fail.
	GetCurrentBranch(projectPath string) string

	// FindAncestorBranch finds the ancestor branch (main or master).
	// Returns empty string if no ancestor found.
	FindAncestorBranch(projectPath, currentBranch string) string

	// IsTracked reports whether file is known to git.
	IsTracked(projectPath, file string) bool

	// DiffFile returns the unified diff of file against branch.
	// An unchanged file yields an empty string.
	DiffFile(projectPath, branch, file string) (string, error)
}

// gitOps is the real implementation using exec.Command.
type gitOps struct{}

// NewOperations returns the default git operations implementation.
func NewOperations() Operations {
	return &gitOps{}
}

func (g *gitOps) GetWorktreeRoot(projectPath string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = projectPath
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, projectPath)
	}
	root := strings.TrimSpace(string(output))
	if root == "" {
		return "", fmt.Errorf("%w: %s", ErrNotRepository, projectPath)
	}
	return root, nil
}

func (g *gitOps) GetCurrentBranch(projectPath string) string {
	cmd := exec.Command("git", "branch", "--show-current")
	cmd.Dir = projectPath
	output, err := cmd.Output()
	if err != nil || len(strings.TrimSpace(string(output))) == 0 {
		// Might be detached HEAD
		cmd = exec.Command("git", "rev-parse", "--short", "HEAD")
		cmd.Dir = projectPath
		output, err = cmd.Output()
		if err != nil {
			return "unknown"
		}
		return "detached-" + strings.TrimSpace(string(output))
	}
	return strings.TrimSpace(string(output))
}

func (g *gitOps) FindAncestorBranch(projectPath, currentBranch string) string {
	for _, candidate := range []string{"main", "master"} {
		cmd := exec.Command("git", "merge-base", currentBranch, candidate)
		cmd.Dir = projectPath
		if output, err := cmd.Output(); err == nil && len(output) > 0 {
			return candidate
		}
	}
	return ""
}

func (g *gitOps) IsTracked(projectPath, file string) bool {
	cmd := exec.Command("git", "ls-files", "--error-unmatch", "--", file)
	cmd.Dir = projectPath
	return cmd.Run() == nil
}

func (g *gitOps) DiffFile(projectPath, branch, file string) (string, error) {
	cmd := exec.Command("git", "diff", "--no-color", branch, "--", file)
	cmd.Dir = projectPath
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git diff %s: %s", branch, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git diff %s: %w", branch, err)
	}
	return strings.TrimRight(string(output), "\n"), nil
}
