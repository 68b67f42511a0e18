package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mvp-joe/ctxpack/internal/clipboard"
	"github.com/mvp-joe/ctxpack/internal/config"
	"github.com/mvp-joe/ctxpack/internal/engine"
	"github.com/mvp-joe/ctxpack/internal/git"
	"github.com/mvp-joe/ctxpack/internal/source"
	"github.com/spf13/cobra"
)

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Assemble one bundle for the current instruction",
	Long: `Pack locates the most recently modified file containing the instruction
marker, collects the files defining the types it mentions and writes the
bundle to stdout, a file or the clipboard. Diagnostics go to stderr.

Examples:
  # Bundle to stdout
  ctxpack pack

  # Copy to the clipboard under a 60k character budget
  ctxpack pack --clipboard --budget 60000

  # Include call sites and diffs against main
  ctxpack pack --references --diff main`,
	RunE: runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)
}

// copier places text on the system clipboard.
type copier interface {
	Copy(text string) error
}

// packOptions carries everything one pack run needs.
type packOptions struct {
	Root      string
	Config    *config.Config
	Git       git.Operations
	Reader    source.Reader
	Copier    copier
	Output    string
	Report    string
	Stdout    bool
	Quiet     bool
	Spinner   bool
	Clipboard bool
}

func runPack(cmd *cobra.Command, args []string) error {
	gitOps := git.NewOperations()
	root, cfg, err := loadProject(cmd.Flags(), gitOps)
	if err != nil {
		return err
	}

	reader, err := source.NewCachedReader(source.DefaultCacheBytes)
	if err != nil {
		return err
	}
	defer reader.Close()

	return executePack(cmd.Context(), packOptions{
		Root:      root,
		Config:    cfg,
		Git:       gitOps,
		Reader:    reader,
		Copier:    clipboard.New(),
		Output:    outputFlag,
		Report:    reportFlag,
		Stdout:    stdoutFlag,
		Quiet:     quietFlag,
		Spinner:   !quietFlag,
		Clipboard: cfg.Output.Clipboard,
	}, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// executePack runs the engine once and delivers the bundle.
func executePack(ctx context.Context, opts packOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	eng := engine.New(opts.Config, opts.Git, opts.Reader)

	var spinner *scanSpinner
	if opts.Spinner {
		spinner = newScanSpinner(stderr)
	} else {
		spinner = newScanSpinner(nil)
	}
	eng.WithProgress(spinner)

	result, err := eng.Run(ctx, opts.Root)
	spinner.Finish()
	if err != nil {
		return err
	}

	printDiagnostics(stderr, result, opts.Quiet)

	if opts.Report != "" {
		if err := engine.WriteReport(opts.Report, result); err != nil {
			return err
		}
	}

	return deliver(result.Bundle.Text, opts, stdout, stderr)
}

// deliver writes the bundle to every chosen destination. stdout is used
// when nothing else is chosen or when copying to the clipboard fails.
func deliver(text string, opts packOptions, stdout, stderr io.Writer) error {
	toStdout := opts.Stdout || (opts.Output == "" && !opts.Clipboard)

	if opts.Output != "" {
		if dir := filepath.Dir(opts.Output); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(opts.Output, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}
		if !opts.Quiet {
			fmt.Fprintf(stderr, "Wrote bundle to %s\n", opts.Output)
		}
	}

	if opts.Clipboard {
		if opts.Copier == nil {
			fmt.Fprintln(stderr, "Warning: clipboard unavailable, writing bundle to stdout")
			toStdout = true
		} else if err := opts.Copier.Copy(text); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to copy bundle to clipboard: %v\n", err)
			toStdout = true
		} else if !opts.Quiet {
			fmt.Fprintln(stderr, "Copied bundle to clipboard")
		}
	}

	if toStdout {
		if _, err := io.WriteString(stdout, text); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}
	}
	return nil
}

// printDiagnostics writes the run summary, or only its warnings when quiet.
func printDiagnostics(w io.Writer, result *engine.Result, quiet bool) {
	if !quiet {
		fmt.Fprint(w, result.Diagnostics())
		return
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}
