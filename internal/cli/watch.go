package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvp-joe/ctxpack/internal/clipboard"
	"github.com/mvp-joe/ctxpack/internal/discovery"
	"github.com/mvp-joe/ctxpack/internal/engine"
	"github.com/mvp-joe/ctxpack/internal/git"
	"github.com/mvp-joe/ctxpack/internal/instruction"
	"github.com/mvp-joe/ctxpack/internal/source"
	"github.com/mvp-joe/ctxpack/internal/watcher"
	"github.com/spf13/cobra"
)

var watchDebounceFlag time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the bundle whenever source files change",
	Long: `Watch packs a bundle, then rebuilds it every time an eligible source file
under the root changes. Saving a file with a new instruction comment is
enough to get a fresh bundle on the clipboard or in --output.

Examples:
  ctxpack watch --clipboard
  ctxpack watch --output .ctxpack/bundle.md`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounceFlag, "debounce", watcher.DefaultDebounce, "Quiet period after the last change before rebuilding")
}

func runWatch(cmd *cobra.Command, args []string) error {
	gitOps := git.NewOperations()
	root, cfg, err := loadProject(cmd.Flags(), gitOps)
	if err != nil {
		return err
	}

	fd, err := discovery.New(cfg.Paths.Extensions, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("failed to create file discovery: %w", err)
	}

	reader, err := source.NewCachedReader(source.DefaultCacheBytes)
	if err != nil {
		return err
	}
	defer reader.Close()

	fw, err := watcher.NewFileWatcher(root, fd, watchDebounceFlag)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watchSession{
		opts: packOptions{
			Root:      root,
			Config:    cfg,
			Git:       gitOps,
			Reader:    reader,
			Copier:    clipboard.New(),
			Output:    outputFlag,
			Report:    reportFlag,
			Stdout:    stdoutFlag,
			Quiet:     quietFlag,
			Clipboard: cfg.Output.Clipboard,
		},
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}

	w.rebuild(ctx, nil)
	if err := fw.Start(ctx, func(files []string) { w.rebuild(ctx, files) }); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	if !quietFlag {
		log.Printf("Watching %s for changes (Ctrl+C to stop)...", root)
	}
	<-ctx.Done()
	return nil
}

// watchSession rebuilds and redelivers the bundle. Rebuilds run on the
// watcher goroutine one at a time.
type watchSession struct {
	opts   packOptions
	stdout io.Writer
	stderr io.Writer
	last   string
}

// rebuild runs the engine and delivers the bundle when it changed. A
// missing instruction is expected between edits and only reported.
func (w *watchSession) rebuild(ctx context.Context, changed []string) {
	if ctx.Err() != nil {
		return
	}
	if len(changed) > 0 && !w.opts.Quiet {
		log.Printf("%d file(s) changed, rebuilding...", len(changed))
	}

	result, err := engine.New(w.opts.Config, w.opts.Git, w.opts.Reader).Run(ctx, w.opts.Root)
	if err != nil {
		if errors.Is(err, instruction.ErrNoInstructionFound) {
			if !w.opts.Quiet {
				log.Printf("No instruction found, waiting for a %q comment...", w.opts.Config.Marker.Instruction)
			}
			w.last = ""
			return
		}
		log.Printf("Warning: rebuild failed: %v", err)
		return
	}

	if result.Bundle.Text == w.last {
		return
	}
	w.last = result.Bundle.Text

	printDiagnostics(w.stderr, result, w.opts.Quiet)

	if w.opts.Report != "" {
		if err := engine.WriteReport(w.opts.Report, result); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	if err := deliver(result.Bundle.Text, w.opts, w.stdout, w.stderr); err != nil {
		log.Printf("Warning: %v", err)
	}
}
