package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootFlag       string
	budgetFlag     int
	warnFlag       int
	wholeRepoFlag  bool
	referencesFlag bool
	diffFlag       string
	noRegionsFlag  bool
	stdoutFlag     bool
	clipboardFlag  bool
	outputFlag     string
	reportFlag     string
	quietFlag      bool
)

// rootCmd represents the base command when called without any subcommands.
// A bare invocation assembles one bundle, same as "ctxpack pack".
var rootCmd = &cobra.Command{
	Use:   "ctxpack",
	Short: "Pack the code around an AI instruction comment into one prompt",
	Long: `ctxpack finds the instruction comment you most recently wrote (by default
a line containing "// TODO: ai"), collects the files that define the types it
mentions and packs them into a single prompt under a character budget.

Configuration is read from .ctxpack/config.yml in the repository root, then
from .env and CTXPACK_* environment variables; flags override everything.`,
	SilenceUsage: true,
	RunE:         runPack,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlag, "root", "", "Top-level root (default: git worktree root of the current directory)")
	flags.IntVar(&budgetFlag, "budget", 0, "Hard character budget; 0 disables it")
	flags.IntVar(&warnFlag, "warn", 0, "Character count above which exclusion suggestions are printed")
	flags.BoolVar(&wholeRepoFlag, "whole-repo", false, "Search the whole repository instead of the instruction's package")
	flags.BoolVar(&referencesFlag, "references", false, "Also include files referencing the type enclosing the instruction")
	flags.StringVar(&diffFlag, "diff", "", "Append diffs against this branch ('auto' picks main or master)")
	flags.BoolVar(&noRegionsFlag, "no-regions", false, "Include context files in full, ignoring // v ... // ^ regions")
	flags.BoolVar(&stdoutFlag, "stdout", false, "Write the bundle to stdout (default when no other destination is chosen)")
	flags.BoolVar(&clipboardFlag, "clipboard", false, "Copy the bundle to the system clipboard")
	flags.StringVarP(&outputFlag, "output", "o", "", "Write the bundle to this file")
	flags.StringVar(&reportFlag, "report", "", "Write a YAML run report to this file")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "Only print warnings to stderr")
}
