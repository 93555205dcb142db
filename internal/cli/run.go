package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qsis-io/qsis/internal/engine"
	"github.com/qsis-io/qsis/internal/export"
	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	CSVPath  string
	PlotPath string
	MaxSteps int

	// Tokens allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens engine.RunTokenGenerator
}

// RunResponse is the run command's output payload.
type RunResponse struct {
	RunID     string                `json:"run_id"`
	Scenario  string                `json:"scenario"`
	Samples   int                   `json:"samples"`
	Observers []engine.ObserverView `json:"observers,omitempty"`
	CSV       string                `json:"csv,omitempty"`
	Plot      string                `json:"plot,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.cue>",
		Short: "Execute a scenario sweep and persist the samples",
		Long: `Execute a scenario's velocity sweep.

The scenario file is compiled and validated, the sweep runs to completion,
and every sample is recorded in the SQLite database under a fresh UUIDv7
run ID. Scenarios with a rest_mass carry energy and momentum in every
sample; scenarios naming observers report the sweep's top velocity as
each observer frame measures it. The sample set can additionally be
exported as CSV and rendered as a chart in one go.

Example:
  qsis run --db ./qsis.db scenarios/gamma-sweep.cue
  qsis run --db ./qsis.db --csv out.csv --plot out.svg scenarios/twin.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.CSVPath, "csv", "", "export samples to CSV file")
	cmd.Flags().StringVar(&opts.PlotPath, "plot", "", "render chart to file (.png, .svg, .pdf)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "override per-run sample quota")

	return cmd
}

func runRun(opts *RunOptions, scenarioPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := scenario.LoadFile(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	slog.Debug("scenario compiled", "name", s.Name, "steps", s.Sweep.Count())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	eng := engine.New(st, opts.Tokens)
	if opts.MaxSteps > 0 {
		eng.SetMaxSteps(opts.MaxSteps)
	}

	result, err := eng.Run(cmd.Context(), s)
	if err != nil {
		return WrapExitError(ExitFailure, "run failed", err)
	}

	response := RunResponse{
		RunID:     result.RunID,
		Scenario:  result.ScenarioName,
		Samples:   result.Steps,
		Observers: result.Observers,
	}

	if opts.CSVPath != "" {
		if err := export.WriteCSVFile(opts.CSVPath, result.Samples); err != nil {
			return WrapExitError(ExitCommandError, "csv export failed", err)
		}
		response.CSV = opts.CSVPath
		formatter.VerboseLog("samples exported to %s", opts.CSVPath)
	}

	if opts.PlotPath != "" {
		if err := export.RenderChart(opts.PlotPath, result.ScenarioName, result.Samples); err != nil {
			return WrapExitError(ExitCommandError, "chart rendering failed", err)
		}
		response.Plot = opts.PlotPath
		formatter.VerboseLog("chart rendered to %s", opts.PlotPath)
	}

	if opts.Format == "json" {
		return formatter.Success(response)
	}
	for _, o := range response.Observers {
		fmt.Fprintf(formatter.Writer, "  observer %s (β=%g) measures the sweep's top velocity as β=%.6f\n",
			o.Name, o.Beta, o.RelativeBeta)
	}
	return formatter.Success(fmt.Sprintf("✓ Run %s complete: scenario %q, %d samples",
		response.RunID, response.Scenario, response.Samples))
}
