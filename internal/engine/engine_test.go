package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsis-io/qsis/internal/relativity"
	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/store"
)

func testScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Name:         "test-sweep",
		ProperTime:   10,
		ProperLength: 100,
		Sweep:        scenario.Sweep{Start: 0, Stop: 0.8, Steps: 8},
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestEngine_Run_PersistsSamples(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))
	ctx := context.Background()

	result, err := eng.Run(ctx, testScenario())
	require.NoError(t, err)

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "test-sweep", result.ScenarioName)
	assert.Equal(t, 9, result.Steps, "8 steps means 9 samples inclusive")
	assert.NotEmpty(t, result.ScenarioHash)

	run, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusComplete, run.Status)
	assert.Equal(t, 9, run.Steps)

	stored, err := st.ReadSamples(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, result.Samples, stored)
}

func TestEngine_Run_SampleValues(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))

	result, err := eng.Run(context.Background(), testScenario())
	require.NoError(t, err)
	require.Len(t, result.Samples, 9)

	first := result.Samples[0]
	assert.Equal(t, int64(1), first.Seq)
	assert.Zero(t, first.Beta)
	assert.Equal(t, 1.0, first.Gamma)
	assert.Equal(t, 10.0, first.DilatedTime)
	assert.Equal(t, 100.0, first.ContractedLength)
	assert.Equal(t, 1.0, first.Doppler)

	// beta = 0.6 lands on step 6: gamma 1.25, doppler 0.5.
	sixth := result.Samples[6]
	assert.InDelta(t, 0.6, sixth.Beta, 1e-12)
	assert.InEpsilon(t, 1.25, sixth.Gamma, 1e-9)
	assert.InEpsilon(t, 12.5, sixth.DilatedTime, 1e-9)
	assert.InEpsilon(t, 80.0, sixth.ContractedLength, 1e-9)
	assert.InEpsilon(t, 0.5, sixth.Doppler, 1e-9)
}

func TestEngine_Run_Deterministic(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-a", "run-b"))
	ctx := context.Background()

	a, err := eng.Run(ctx, testScenario())
	require.NoError(t, err)
	b, err := eng.Run(ctx, testScenario())
	require.NoError(t, err)

	assert.Equal(t, a.Samples, b.Samples, "same scenario must produce identical samples")
	assert.Equal(t, a.ScenarioHash, b.ScenarioHash)
}

func TestEngine_Run_QuotaExceeded(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))
	eng.SetMaxSteps(5)

	_, err := eng.Run(context.Background(), testScenario())
	require.Error(t, err)
	assert.Equal(t, ErrCodeQuotaExceeded, CodeOf(err))

	// Quota is checked before the run record is created.
	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEngine_Run_Cancelled(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, testScenario())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// A cancelled sweep leaves no trace in the store.
	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEngine_Run_DefaultTokenGenerator(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, nil)

	result, err := eng.Run(context.Background(), testScenario())
	require.NoError(t, err)
	assert.Len(t, result.RunID, 36, "nil generator falls back to UUIDv7")
}

func TestComputeSample_Superluminal(t *testing.T) {
	_, err := ComputeSample(1, 1.0, 10, 100, 0)
	assert.Error(t, err)
}

func TestComputeSample_RestMass(t *testing.T) {
	const m = 1.0

	s, err := ComputeSample(1, 0.6, 10, 100, m)
	require.NoError(t, err)

	// p = gamma m v, E = gamma m c^2, T = E - m c^2.
	v := 0.6 * relativity.C
	assert.InEpsilon(t, 1.25*m*v, s.Momentum, 1e-9)
	assert.InEpsilon(t, 1.25*m*relativity.C2, s.Energy, 1e-9)
	assert.InEpsilon(t, 0.25*m*relativity.C2, s.KineticEnergy, 1e-9)

	// Without a mass the energy columns stay zero.
	s, err = ComputeSample(1, 0.6, 10, 100, 0)
	require.NoError(t, err)
	assert.Zero(t, s.Momentum)
	assert.Zero(t, s.Energy)
	assert.Zero(t, s.KineticEnergy)
}

func TestEngine_Run_RestMassSamples(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))

	s := testScenario()
	s.RestMass = 2.0

	result, err := eng.Run(context.Background(), s)
	require.NoError(t, err)

	stored, err := st.ReadSamples(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, stored, 9)
	assert.Equal(t, result.Samples, stored, "energy columns round-trip through the store")
	assert.Zero(t, stored[0].Momentum, "at rest p = 0")
	assert.InEpsilon(t, 2.0*relativity.C2, stored[0].Energy, 1e-9, "at rest E = mc^2")
	assert.Positive(t, stored[8].KineticEnergy)
}

func TestEngine_Run_ObserverViews(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))

	s := testScenario()
	s.Observers = []scenario.Observer{
		{Name: "rest", Beta: 0},
		{Name: "chaser", Beta: 0.5},
	}

	result, err := eng.Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, result.Observers, 2)

	assert.Equal(t, "rest", result.Observers[0].Name)
	assert.InDelta(t, 0.8, result.Observers[0].RelativeBeta, 1e-12, "rest frame sees the sweep's top velocity unchanged")

	// (0.8 - 0.5) / (1 - 0.4) = 0.5.
	assert.Equal(t, "chaser", result.Observers[1].Name)
	assert.InEpsilon(t, 0.5, result.Observers[1].RelativeBeta, 1e-9)
}

func TestEngine_Replay_Deterministic(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))
	ctx := context.Background()
	s := testScenario()

	_, err := eng.Run(ctx, s)
	require.NoError(t, err)

	result, err := eng.Replay(ctx, s, "run-1")
	require.NoError(t, err)
	assert.True(t, result.Deterministic)
	assert.Empty(t, result.Divergences)
	assert.Equal(t, 9, result.Samples)
}

func TestEngine_Replay_DetectsTampering(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))
	ctx := context.Background()
	s := testScenario()

	_, err := eng.Run(ctx, s)
	require.NoError(t, err)

	// Corrupt one stored value behind the engine's back.
	tamperSample(t, st, "run-1", 3)

	result, err := eng.Replay(ctx, s, "run-1")
	require.NoError(t, err)
	assert.False(t, result.Deterministic)
	require.NotEmpty(t, result.Divergences)
	assert.Equal(t, int64(3), result.Divergences[0].Seq)
	assert.Equal(t, "gamma", result.Divergences[0].Field)
}

func TestEngine_Replay_WrongScenario(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, NewFixedGenerator("run-1"))
	ctx := context.Background()

	_, err := eng.Run(ctx, testScenario())
	require.NoError(t, err)

	changed := testScenario()
	changed.Sweep.Steps = 4

	_, err = eng.Replay(ctx, changed, "run-1")
	require.Error(t, err)
	assert.Equal(t, ErrCodeBadScenario, CodeOf(err))
	assert.Contains(t, err.Error(), "does not match recorded hash")
}

func TestEngine_Replay_UnknownRun(t *testing.T) {
	st := openTestStore(t)
	eng := New(st, nil)

	_, err := eng.Replay(context.Background(), testScenario(), "absent")
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

// tamperSample corrupts one sample's gamma directly in SQLite, bypassing
// the append-only store API.
func tamperSample(t *testing.T, st *store.Store, runID string, seq int64) {
	t.Helper()
	_, err := st.DB().Exec(
		"UPDATE samples SET gamma = gamma + 0.5 WHERE run_id = ? AND seq = ?",
		runID, seq,
	)
	require.NoError(t, err)
}
