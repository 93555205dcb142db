package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qsis-io/qsis/internal/relativity"
	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/store"
)

// DefaultMaxSteps is the default sample quota per run.
// This prevents a fat-fingered sweep from filling the database.
const DefaultMaxSteps = 10000

// Engine executes scenario sweeps against a store.
//
// All mutations happen in the calling goroutine; the engine holds no
// background workers. Determinism invariant: Run with the same scenario
// and token yields a byte-identical sample set.
type Engine struct {
	store    *store.Store
	tokens   RunTokenGenerator
	maxSteps int
	log      *slog.Logger
}

// Result summarizes one executed run.
type Result struct {
	RunID        string         `json:"run_id"`
	ScenarioName string         `json:"scenario_name"`
	ScenarioHash string         `json:"scenario_hash"`
	Steps        int            `json:"steps"`
	Samples      []store.Sample `json:"samples,omitempty"`
	Observers    []ObserverView `json:"observers,omitempty"`
}

// ObserverView reports the sweep's top velocity as measured from a named
// observer's frame, via relativistic velocity composition.
type ObserverView struct {
	Name         string  `json:"name"`
	Beta         float64 `json:"beta"`
	RelativeBeta float64 `json:"relative_beta"`
}

// New creates an engine with the default sample quota.
// tokens defaults to UUIDv7Generator when nil.
func New(st *store.Store, tokens RunTokenGenerator) *Engine {
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}
	return &Engine{
		store:    st,
		tokens:   tokens,
		maxSteps: DefaultMaxSteps,
		log:      slog.Default(),
	}
}

// SetMaxSteps overrides the per-run sample quota. Values < 1 are ignored.
func (e *Engine) SetMaxSteps(n int) {
	if n >= 1 {
		e.maxSteps = n
	}
}

// Run executes a scenario sweep, persisting the run record and every
// sample. The whole sample set lands in one transaction; on failure the
// run is marked failed with no samples.
//
// Honors ctx cancellation between steps; a cancelled run is marked failed.
func (e *Engine) Run(ctx context.Context, s *scenario.Scenario) (Result, error) {
	hash, err := s.Hash()
	if err != nil {
		return Result{}, &RunError{Code: ErrCodeBadScenario, Message: "cannot hash scenario", Err: err}
	}

	if s.Sweep.Count() > e.maxSteps {
		return Result{}, &RunError{
			Code:    ErrCodeQuotaExceeded,
			Message: fmt.Sprintf("sweep produces %d samples, quota is %d", s.Sweep.Count(), e.maxSteps),
		}
	}

	// Compute before persisting: a cancelled or unphysical sweep leaves
	// no trace in the store.
	samples, err := ComputeSweep(ctx, s)
	if err != nil {
		return Result{}, err
	}

	observers, err := observerViews(s)
	if err != nil {
		return Result{}, &RunError{Code: ErrCodeBadScenario, Message: "observer frames", Err: err}
	}

	runID := e.tokens.Generate()
	e.log.Debug("starting run", "run_id", runID, "scenario", s.Name, "steps", len(samples))

	if err := e.store.BeginRun(ctx, runID, s.Name, hash); err != nil {
		return Result{}, &RunError{Code: ErrCodeStoreFailed, RunID: runID, Message: "begin run", Err: err}
	}

	if err := e.store.AppendSamples(ctx, runID, samples); err != nil {
		e.failRun(ctx, runID)
		return Result{}, &RunError{Code: ErrCodeStoreFailed, RunID: runID, Message: "append samples", Err: err}
	}
	if err := e.store.FinishRun(ctx, runID, len(samples), store.StatusComplete); err != nil {
		return Result{}, &RunError{Code: ErrCodeStoreFailed, RunID: runID, Message: "finish run", Err: err}
	}

	e.log.Debug("run complete", "run_id", runID, "samples", len(samples))
	return Result{
		RunID:        runID,
		ScenarioName: s.Name,
		ScenarioHash: hash,
		Steps:        len(samples),
		Samples:      samples,
		Observers:    observers,
	}, nil
}

// observerViews composes the sweep's top velocity with each observer frame.
// An object at the sweep's stop velocity moves at (v - v_obs)/(1 - v v_obs/c^2)
// relative to an observer at v_obs, which is velocity addition with the
// observer's velocity negated.
func observerViews(s *scenario.Scenario) ([]ObserverView, error) {
	if len(s.Observers) == 0 {
		return nil, nil
	}

	top := s.Sweep.Stop * relativity.C
	views := make([]ObserverView, len(s.Observers))
	for i, o := range s.Observers {
		w, err := relativity.VelocityAddition(top, -o.Beta*relativity.C)
		if err != nil {
			return nil, fmt.Errorf("observer %q: %w", o.Name, err)
		}
		views[i] = ObserverView{Name: o.Name, Beta: o.Beta, RelativeBeta: w / relativity.C}
	}
	return views, nil
}

// failRun best-effort marks a run failed. The original error is what the
// caller sees; a failure to record the failure only gets logged.
func (e *Engine) failRun(ctx context.Context, runID string) {
	if err := e.store.FinishRun(ctx, runID, 0, store.StatusFailed); err != nil {
		e.log.Error("could not mark run failed", "run_id", runID, "error", err)
	}
}

// ComputeSweep produces the full sample set for a scenario without
// touching storage. Run and Replay both call this; it is the single
// source of truth for what a scenario computes.
func ComputeSweep(ctx context.Context, s *scenario.Scenario) ([]store.Sample, error) {
	clock := NewClock()
	count := s.Sweep.Count()
	samples := make([]store.Sample, 0, count)

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweep cancelled at step %d: %w", i, err)
		}

		sample, err := ComputeSample(clock.Next(), s.Sweep.Beta(i), s.ProperTime, s.ProperLength, s.RestMass)
		if err != nil {
			return nil, &RunError{
				Code:    ErrCodeBadScenario,
				Message: fmt.Sprintf("step %d", i),
				Err:     err,
			}
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// ComputeSample computes every derived quantity for one velocity fraction.
// restMass is optional: zero leaves the energy quantities zero.
func ComputeSample(seq int64, beta, properTime, properLength, restMass float64) (store.Sample, error) {
	v := beta * relativity.C

	gamma, err := relativity.GammaFromBeta(beta)
	if err != nil {
		return store.Sample{}, err
	}
	rapidity, err := relativity.Rapidity(v)
	if err != nil {
		return store.Sample{}, err
	}
	doppler, err := relativity.DopplerFactor(v, true)
	if err != nil {
		return store.Sample{}, err
	}

	sample := store.Sample{
		Seq:              seq,
		Beta:             beta,
		Gamma:            gamma,
		ProperTime:       properTime,
		DilatedTime:      properTime * gamma,
		ProperLength:     properLength,
		ContractedLength: properLength / gamma,
		Rapidity:         rapidity,
		Doppler:          doppler,
	}

	if restMass != 0 {
		if sample.Momentum, err = relativity.Momentum(restMass, v); err != nil {
			return store.Sample{}, err
		}
		if sample.Energy, err = relativity.TotalEnergy(restMass, v); err != nil {
			return store.Sample{}, err
		}
		if sample.KineticEnergy, err = relativity.KineticEnergy(restMass, v); err != nil {
			return store.Sample{}, err
		}
	}

	return sample, nil
}
