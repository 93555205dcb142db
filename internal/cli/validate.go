package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/spacetime"
)

// ValidationResult holds validation results for a scenario directory.
type ValidationResult struct {
	Valid      bool             `json:"valid"`
	Scenarios  []string         `json:"scenarios,omitempty"`
	Worldlines []WorldlineCheck `json:"worldlines,omitempty"`
	Errors     []string         `json:"errors,omitempty"`
}

// WorldlineCheck reports the chronology diagnostics for one scenario's
// worldline: per-segment separations, the integrated proper time when the
// worldline is causally sound, and any violations found.
type WorldlineCheck struct {
	Scenario   string   `json:"scenario"`
	Segments   []string `json:"segments"`
	ProperTime float64  `json:"proper_time,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario-dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate every CUE scenario file in a directory.

Performs schema validation and the cross-field checks the schema cannot
express (sweep direction, subluminal bounds). Scenarios carrying a
worldline additionally get chronology diagnostics: every segment is
classified, causal violations (faster-than-light segments, backward
time travel, closed loops) fail validation, and sound worldlines report
their integrated proper time. All files are checked; every error is
reported.

Exit codes:
  0 - all scenarios valid
  1 - one or more scenarios invalid
  2 - directory missing or unreadable`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Directory problems are command errors; a directory full of broken
	// scenarios is a validation failure, not a command error.
	files, err := scenario.FindScenarioFiles(dir)
	if err != nil {
		if outErr := formatter.Failure("LOAD_ERROR", err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "cannot load scenarios", err)
	}
	if len(files) == 0 {
		if outErr := formatter.Failure("LOAD_ERROR", "no scenario files (*.cue) found", nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, "no scenario files found in "+dir)
	}

	results, errs := scenario.LoadDir(dir, scenario.LoadModeCollectAll)

	result := ValidationResult{}
	for _, r := range results {
		formatter.VerboseLog("validated %s (%s)", r.Path, r.Scenario.Name)
		result.Scenarios = append(result.Scenarios, r.Scenario.Name)

		if len(r.Scenario.Worldline) > 1 {
			check := checkWorldline(r.Scenario)
			result.Worldlines = append(result.Worldlines, check)
			result.Errors = append(result.Errors, check.Violations...)
		}
	}
	for _, err := range errs {
		result.Errors = append(result.Errors, err.Error())
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		if opts.Format == "json" {
			if err := formatter.Failure("INVALID_SCENARIO", "validation failed", result); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %d scenario(s) failed validation:\n%s\n",
				len(result.Errors), strings.Join(result.Errors, "\n"))
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) invalid", len(result.Errors)))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	for _, wc := range result.Worldlines {
		fmt.Fprintf(formatter.Writer, "  %s: worldline chronological (%s), proper time %g s\n",
			wc.Scenario, strings.Join(wc.Segments, ", "), wc.ProperTime)
	}
	return formatter.Success(fmt.Sprintf("✓ All scenarios valid (%d checked)", len(result.Scenarios)))
}

// checkWorldline runs chronology diagnostics over a scenario's worldline.
// Violations are phrased with the scenario name so they read in the same
// error list as compile failures.
func checkWorldline(s *scenario.Scenario) WorldlineCheck {
	w := spacetime.Worldline{Events: s.Worldline}
	report := w.Chronology()

	check := WorldlineCheck{Scenario: s.Name}
	for _, seg := range report.Segments {
		check.Segments = append(check.Segments, seg.String())
	}

	for _, v := range report.Violations {
		if v.Segment < 0 {
			check.Violations = append(check.Violations,
				fmt.Sprintf("scenario %q: worldline: %s", s.Name, v.Violation))
			continue
		}
		check.Violations = append(check.Violations,
			fmt.Sprintf("scenario %q: worldline segment %d: %s", s.Name, v.Segment, v.Violation))
	}

	if report.Chronological() {
		// Chronological worldlines are exactly the domain of ProperTime.
		if tau, err := w.ProperTime(); err == nil {
			check.ProperTime = tau
		}
	}
	return check
}
