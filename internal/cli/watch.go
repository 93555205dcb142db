package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/qsis-io/qsis/internal/engine"
	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/store"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Database string
	Debounce time.Duration

	// Tokens allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens engine.RunTokenGenerator
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-run scenarios whenever their files change",
		Long: `Watch a directory of scenario files and re-run every scenario when one
changes. Edits are debounced so a save that touches several files
triggers a single sweep. Stops on Ctrl-C.

Example:
  qsis watch --db ./qsis.db scenarios/`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 250*time.Millisecond, "delay before reacting to a burst of changes")

	return cmd
}

func runWatch(opts *WatchOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to watch %s", dir), err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(st, opts.Tokens)

	fmt.Fprintf(formatter.Writer, "watching %s (Ctrl-C to stop)\n", dir)
	slog.Info("watch started", "dir", dir, "debounce", opts.Debounce)

	// Initial sweep so the watch starts from a known-good state.
	sweepAll(ctx, formatter, eng, dir)

	// Debounce: a dirty flag armed by events, flushed by the timer. The
	// timer starts stopped and is re-armed on every event, so a burst of
	// writes collapses into one sweep.
	timer := time.NewTimer(opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	dirty := false

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".cue") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("scenario change", "file", filepath.Base(event.Name), "op", event.Op.String())
			if dirty {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(opts.Debounce)
			dirty = true

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "error", werr)

		case <-timer.C:
			dirty = false
			sweepAll(ctx, formatter, eng, dir)
		}
	}
}

// sweepAll validates and runs every scenario in the directory. A broken
// scenario is reported and skipped; the rest still run.
func sweepAll(ctx context.Context, formatter *OutputFormatter, eng *engine.Engine, dir string) {
	results, errs := scenario.LoadDir(dir, scenario.LoadModeCollectAll)
	for _, err := range errs {
		fmt.Fprintf(formatter.ErrWriter, "✗ %v\n", err)
	}

	for _, res := range results {
		result, err := eng.Run(ctx, res.Scenario)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(formatter.ErrWriter, "✗ %s: %v\n", res.Scenario.Name, err)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✓ %s: run %s, %d samples\n",
			result.ScenarioName, result.RunID, result.Steps)
	}
}
