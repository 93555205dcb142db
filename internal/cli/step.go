package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qsis-io/qsis/internal/engine"
	"github.com/qsis-io/qsis/internal/export"
	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/store"
)

// StepOptions holds flags for the step command.
type StepOptions struct {
	*RootOptions
	Database   string
	PresetPath string
	CSVPath    string
	Resume     string

	// Tokens allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens engine.RunTokenGenerator
}

// NewStepCommand creates the step command.
func NewStepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "step",
		Short: "Step a velocity interactively and record the session",
		Long: `Step a velocity up and down interactively, printing the relativistic
readout after every change. On quit the recorded samples are persisted
as a run, so interactive sessions list, plot, and export like batch
sweeps. A recorded session can be continued later with --resume; the
velocity and sample sequence pick up where the session stopped.

Commands (one per line):
  +            increase velocity by one step
  -            decrease velocity by one step
  set <beta>   jump to an exact fraction of c
  q            quit and persist the session

Example:
  qsis step --db ./qsis.db
  qsis step --db ./qsis.db --preset twin.yaml --csv session.csv
  qsis step --db ./qsis.db --resume 0198c0de-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.PresetPath, "preset", "", "YAML preset file (defaults to built-in preset)")
	cmd.Flags().StringVar(&opts.CSVPath, "csv", "", "export recorded samples to CSV file on quit")
	cmd.Flags().StringVar(&opts.Resume, "resume", "", "run ID of a recorded session to continue")

	return cmd
}

func runStep(opts *StepOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	preset := scenario.DefaultPreset()
	if opts.PresetPath != "" {
		var err error
		preset, err = scenario.LoadPreset(opts.PresetPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load preset", err)
		}
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

	stepper, resumed, err := setupStepper(cmd.Context(), st, preset, opts.Resume)
	if err != nil {
		return err
	}

	initial, err := stepper.Current()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid preset state", err)
	}
	printReadout(formatter, initial)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var sample store.Sample
		var stepErr error
		switch {
		case line == "+":
			sample, stepErr = stepper.Increase()
		case line == "-":
			sample, stepErr = stepper.Decrease()
		case line == "q" || line == "quit":
			return persistSession(opts, cmd, formatter, st, preset, stepper, resumed)
		case strings.HasPrefix(line, "set "):
			beta, parseErr := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "set ")), 64)
			if parseErr != nil {
				fmt.Fprintf(formatter.ErrWriter, "bad velocity: %v\n", parseErr)
				continue
			}
			sample, stepErr = stepper.Set(beta)
		default:
			fmt.Fprintf(formatter.ErrWriter, "unknown command %q (try +, -, set <beta>, q)\n", line)
			continue
		}

		if stepErr != nil {
			fmt.Fprintf(formatter.ErrWriter, "%v\n", stepErr)
			continue
		}
		printReadout(formatter, sample)
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "reading input failed", err)
	}

	// EOF without an explicit quit still persists what was recorded.
	return persistSession(opts, cmd, formatter, st, preset, stepper, resumed)
}

// setupStepper builds the session stepper. With --resume it loads the
// named run, checks that it was recorded from the same preset, and
// continues the velocity and sample sequence from the last recorded
// sample.
func setupStepper(ctx context.Context, st *store.Store, preset scenario.Preset, resumeID string) (*engine.Stepper, *store.Run, error) {
	if resumeID == "" {
		return engine.NewStepper(preset), nil, nil
	}

	run, err := st.GetRun(ctx, resumeID)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load session", err)
	}

	hash, err := preset.Hash()
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to hash preset", err)
	}
	if run.ScenarioHash != hash {
		return nil, nil, NewExitError(ExitCommandError,
			fmt.Sprintf("run %s was not recorded from this preset", resumeID))
	}

	samples, err := st.ReadSamples(ctx, resumeID)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to read session samples", err)
	}

	beta := preset.StartBeta
	var lastSeq int64
	if len(samples) > 0 {
		last := samples[len(samples)-1]
		beta = last.Beta
		lastSeq = last.Seq
	}
	return engine.ResumeStepper(preset, beta, lastSeq), &run, nil
}

// printReadout writes the one-line state summary the stepper shows after
// every velocity change.
func printReadout(formatter *OutputFormatter, s store.Sample) {
	fmt.Fprintf(formatter.Writer,
		"β=%.4f  γ=%.6f  t'=%.6g s  L'=%.6g m  φ=%.6f  doppler=%.6f\n",
		s.Beta, s.Gamma, s.DilatedTime, s.ContractedLength, s.Rapidity, s.Doppler)
}

// persistSession records the stepper's samples as a run, either a new
// one or appended to the resumed run. A session with no recorded steps
// leaves the store untouched.
func persistSession(opts *StepOptions, cmd *cobra.Command, formatter *OutputFormatter, st *store.Store, preset scenario.Preset, stepper *engine.Stepper, resumed *store.Run) error {
	samples := stepper.Samples()
	if len(samples) == 0 {
		return formatter.Success("no steps recorded, nothing persisted")
	}

	ctx := cmd.Context()
	var runID string
	steps := len(samples)
	if resumed != nil {
		runID = resumed.ID
		steps += resumed.Steps
	} else {
		hash, err := preset.Hash()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to hash preset", err)
		}

		tokens := opts.Tokens
		if tokens == nil {
			tokens = engine.UUIDv7Generator{}
		}
		runID = tokens.Generate()
		if err := st.BeginRun(ctx, runID, preset.Name, hash); err != nil {
			return WrapExitError(ExitFailure, "failed to record session", err)
		}
	}
	if err := st.AppendSamples(ctx, runID, samples); err != nil {
		return WrapExitError(ExitFailure, "failed to record session", err)
	}
	if err := st.FinishRun(ctx, runID, steps, store.StatusComplete); err != nil {
		return WrapExitError(ExitFailure, "failed to record session", err)
	}

	if opts.CSVPath != "" {
		if err := export.WriteCSVFile(opts.CSVPath, samples); err != nil {
			return WrapExitError(ExitCommandError, "csv export failed", err)
		}
		formatter.VerboseLog("samples exported to %s", opts.CSVPath)
	}

	if opts.Format == "json" {
		return formatter.Success(RunResponse{
			RunID:    runID,
			Scenario: preset.Name,
			Samples:  len(samples),
			CSV:      opts.CSVPath,
		})
	}
	if resumed != nil {
		return formatter.Success(fmt.Sprintf("✓ Session %s extended: preset %q, %d new samples",
			runID, preset.Name, len(samples)))
	}
	return formatter.Success(fmt.Sprintf("✓ Session %s recorded: preset %q, %d samples",
		runID, preset.Name, len(samples)))
}
