package cli

import (
	"fmt"
	"os"

	"github.com/mvp-joe/ctxpack/internal/config"
	"github.com/mvp-joe/ctxpack/internal/engine"
	"github.com/mvp-joe/ctxpack/internal/git"
	"github.com/spf13/pflag"
)

// loadProject resolves the top-level root and its configuration, with
// explicitly set flags applied on top.
func loadProject(flags *pflag.FlagSet, gitOps git.Operations) (string, *config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	root, err := engine.ResolveRoot(gitOps, rootFlag, wd)
	if err != nil {
		return "", nil, err
	}

	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	applyFlags(flags, cfg)
	if err := config.Validate(cfg); err != nil {
		return "", nil, fmt.Errorf("invalid flags: %w", err)
	}

	return root, cfg, nil
}

// applyFlags overrides cfg with every flag the user set.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("budget") {
		cfg.Budget.Limit = budgetFlag
	}
	if flags.Changed("warn") {
		cfg.Budget.WarnThreshold = warnFlag
	}
	if flags.Changed("whole-repo") {
		cfg.Scope.WholeRepo = wholeRepoFlag
	}
	if flags.Changed("references") {
		cfg.Scope.References = referencesFlag
	}
	if flags.Changed("diff") {
		cfg.Diff.Branch = diffFlag
	}
	if flags.Changed("no-regions") {
		cfg.Output.Regions = !noRegionsFlag
	}
	if flags.Changed("clipboard") {
		cfg.Output.Clipboard = clipboardFlag
	}
}
