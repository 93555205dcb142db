package engine

import (
	"context"
	"fmt"

	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/store"
)

// Divergence records one mismatch between a stored sample and its
// recomputed value.
type Divergence struct {
	Seq    int64  `json:"seq"`
	Field  string `json:"field"`
	Stored string `json:"stored"`
	Want   string `json:"want"`
}

// ReplayResult reports the outcome of verifying a stored run.
type ReplayResult struct {
	RunID         string       `json:"run_id"`
	ScenarioName  string       `json:"scenario_name"`
	Samples       int          `json:"samples"`
	Deterministic bool         `json:"deterministic"`
	Divergences   []Divergence `json:"divergences,omitempty"`
}

// Replay recomputes a stored run from its scenario and compares sample by
// sample. The comparison is exact (bitwise float equality): replay runs
// the same code path as the original sweep, so any difference means the
// stored data or the scenario changed.
//
// The caller supplies the scenario; Replay refuses to proceed when its
// hash does not match the hash recorded with the run.
func (e *Engine) Replay(ctx context.Context, s *scenario.Scenario, runID string) (ReplayResult, error) {
	run, err := e.store.GetRun(ctx, runID)
	if err != nil {
		return ReplayResult{}, err
	}

	hash, err := s.Hash()
	if err != nil {
		return ReplayResult{}, &RunError{Code: ErrCodeBadScenario, RunID: runID, Message: "cannot hash scenario", Err: err}
	}
	if hash != run.ScenarioHash {
		return ReplayResult{}, &RunError{
			Code:    ErrCodeBadScenario,
			RunID:   runID,
			Message: fmt.Sprintf("scenario %q hash %s does not match recorded hash %s", s.Name, shortHash(hash), shortHash(run.ScenarioHash)),
		}
	}

	stored, err := e.store.ReadSamples(ctx, runID)
	if err != nil {
		return ReplayResult{}, err
	}

	computed, err := ComputeSweep(ctx, s)
	if err != nil {
		return ReplayResult{}, err
	}

	result := ReplayResult{
		RunID:        runID,
		ScenarioName: run.ScenarioName,
		Samples:      len(stored),
	}

	if len(stored) != len(computed) {
		result.Divergences = append(result.Divergences, Divergence{
			Seq:    0,
			Field:  "count",
			Stored: fmt.Sprintf("%d", len(stored)),
			Want:   fmt.Sprintf("%d", len(computed)),
		})
	} else {
		for i := range stored {
			result.Divergences = append(result.Divergences, diffSamples(stored[i], computed[i])...)
		}
	}

	result.Deterministic = len(result.Divergences) == 0
	return result, nil
}

// shortHash abbreviates a hash for messages.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// diffSamples compares two samples field by field.
func diffSamples(stored, want store.Sample) []Divergence {
	var diffs []Divergence
	add := func(field string, s, w float64) {
		if s != w {
			diffs = append(diffs, Divergence{
				Seq:    stored.Seq,
				Field:  field,
				Stored: fmt.Sprintf("%g", s),
				Want:   fmt.Sprintf("%g", w),
			})
		}
	}

	if stored.Seq != want.Seq {
		diffs = append(diffs, Divergence{
			Seq:    stored.Seq,
			Field:  "seq",
			Stored: fmt.Sprintf("%d", stored.Seq),
			Want:   fmt.Sprintf("%d", want.Seq),
		})
	}
	add("beta", stored.Beta, want.Beta)
	add("gamma", stored.Gamma, want.Gamma)
	add("proper_time", stored.ProperTime, want.ProperTime)
	add("dilated_time", stored.DilatedTime, want.DilatedTime)
	add("proper_length", stored.ProperLength, want.ProperLength)
	add("contracted_length", stored.ContractedLength, want.ContractedLength)
	add("rapidity", stored.Rapidity, want.Rapidity)
	add("doppler", stored.Doppler, want.Doppler)
	add("momentum", stored.Momentum, want.Momentum)
	add("energy", stored.Energy, want.Energy)
	add("kinetic_energy", stored.KineticEnergy, want.KineticEnergy)
	return diffs
}
