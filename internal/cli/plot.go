package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/qsis-io/qsis/internal/export"
	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/spacetime"
	"github.com/qsis-io/qsis/internal/store"
)

// PlotOptions holds flags for the plot command.
type PlotOptions struct {
	*RootOptions
	Database     string
	Output       string
	Diagram      bool
	ScenarioPath string
}

// PlotResponse is the plot command's output payload.
type PlotResponse struct {
	RunID  string   `json:"run_id"`
	Output string   `json:"output"`
	Kind   string   `json:"kind"`
	Cone   []string `json:"cone,omitempty"`
}

// NewPlotCommand creates the plot command.
func NewPlotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plot <run-id>",
		Short: "Render a stored run as a chart or Minkowski diagram",
		Long: `Render a stored run's samples as a chart of gamma, dilated time, and
contracted length against velocity. With --diagram, render the
scenario's worldline on a Minkowski diagram instead and report where
each event sits relative to the first event's light cone; the scenario
file supplies the worldline, since the store only holds samples.

The output format follows the file extension (.png, .svg, .pdf).

Example:
  qsis plot --db ./qsis.db -o gamma.svg 0198c0de-...
  qsis plot --db ./qsis.db --diagram --scenario twin.cue -o twin.png 0198c0de-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (required)")
	_ = cmd.MarkFlagRequired("output")
	cmd.Flags().BoolVar(&opts.Diagram, "diagram", false, "render a Minkowski diagram instead of a sweep chart")
	cmd.Flags().StringVar(&opts.ScenarioPath, "scenario", "", "scenario file supplying the worldline (required with --diagram)")

	return cmd
}

func runPlot(opts *PlotOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Diagram && opts.ScenarioPath == "" {
		return NewExitError(ExitCommandError, "--diagram requires --scenario")
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

	run, err := st.GetRun(cmd.Context(), runID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load run", err)
	}

	response := PlotResponse{RunID: run.ID, Output: opts.Output}

	if opts.Diagram {
		s, err := scenario.LoadFile(opts.ScenarioPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		if len(s.Worldline) < 2 {
			return NewExitError(ExitFailure,
				fmt.Sprintf("scenario %q has no worldline to diagram", s.Name))
		}
		w := spacetime.Worldline{Events: s.Worldline}
		if err := export.RenderDiagram(opts.Output, s.Name, w); err != nil {
			return WrapExitError(ExitCommandError, "diagram rendering failed", err)
		}
		response.Kind = "diagram"
		response.Cone = conePositions(w)
	} else {
		samples, err := st.ReadSamples(cmd.Context(), run.ID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read samples", err)
		}
		if len(samples) == 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("run %s has no samples", run.ID))
		}
		if err := export.RenderChart(opts.Output, run.ScenarioName, samples); err != nil {
			return WrapExitError(ExitCommandError, "chart rendering failed", err)
		}
		response.Kind = "chart"
	}

	if opts.Format == "json" {
		return formatter.Success(response)
	}
	for _, line := range response.Cone {
		fmt.Fprintf(formatter.Writer, "  %s\n", line)
	}
	return formatter.Success(fmt.Sprintf("✓ %s rendered to %s", response.Kind, opts.Output))
}

// conePositions locates each later event relative to the first event's
// light cone, matching the cone drawn on the diagram.
func conePositions(w spacetime.Worldline) []string {
	origin := w.Events[0]
	lines := make([]string, 0, len(w.Events)-1)
	for i, e := range w.Events[1:] {
		lines = append(lines, fmt.Sprintf("event %d (t=%g s, x=%g m): %s of event 0",
			i+1, e.T, e.X, spacetime.Cone(origin, e)))
	}
	return lines
}
