package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qsis-io/qsis/internal/engine"
	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database     string
	ScenarioPath string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Recompute a stored run and verify determinism",
		Long: `Replay a stored run against its scenario and verify determinism.

The scenario file is re-compiled and must hash to the value recorded with
the run; the sweep is then recomputed and compared sample by sample with
exact float equality. Any divergence means the stored data or the
scenario changed since the run.

Exit codes:
  0 - run is deterministic
  1 - divergences detected
  2 - command error (run not found, hash mismatch, etc.)

Examples:
  qsis replay --db ./qsis.db --scenario scenarios/gamma-sweep.cue 0190c0de-...
  qsis replay --db ./qsis.db --scenario scenarios/twin.cue --format json 0190c0de-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ScenarioPath, "scenario", "", "scenario file that produced the run (required)")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := scenario.LoadFile(opts.ScenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
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

	eng := engine.New(st, nil)
	result, err := eng.Replay(cmd.Context(), s, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	if !result.Deterministic {
		if opts.Format == "json" {
			if err := formatter.Failure("DIVERGENT", "replay diverged", result); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(formatter.Writer, "✗ Run %s diverged in %d place(s):\n", runID, len(result.Divergences))
			for _, d := range result.Divergences {
				fmt.Fprintf(formatter.Writer, "  seq %d %s: stored %s, want %s\n", d.Seq, d.Field, d.Stored, d.Want)
			}
		}
		return NewExitError(ExitFailure, "replay diverged")
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ Run %s deterministic: %d samples verified", runID, result.Samples))
}
