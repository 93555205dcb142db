package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsis-io/qsis/internal/store"
)

func TestStep_RecordsSession(t *testing.T) {
	db := tempDB(t)
	in := strings.NewReader("+\n+\nset 0.5\nq\n")

	stdout, _, err := execute(t, in, "step", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "β=0.0100")
	assert.Contains(t, stdout, "β=0.0200")
	assert.Contains(t, stdout, "β=0.5000")
	assert.Contains(t, stdout, "✓ Session ")
	assert.Contains(t, stdout, `preset "interactive", 3 samples`)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "interactive", runs[0].ScenarioName)
	assert.Equal(t, 3, runs[0].Steps)
	assert.Equal(t, store.StatusComplete, runs[0].Status)

	samples, err := st.ReadSamples(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, 0.5, samples[2].Beta)
}

func TestStep_DecreaseClampsAtZero(t *testing.T) {
	db := tempDB(t)
	in := strings.NewReader("-\nq\n")

	stdout, _, err := execute(t, in, "step", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "β=0.0000")
}

func TestStep_NoStepsNothingPersisted(t *testing.T) {
	db := tempDB(t)
	in := strings.NewReader("q\n")

	stdout, _, err := execute(t, in, "step", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "nothing persisted")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStep_UnknownCommand(t *testing.T) {
	db := tempDB(t)
	in := strings.NewReader("bogus\nq\n")

	_, stderr, err := execute(t, in, "step", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stderr, `unknown command "bogus"`)
}

func TestStep_SetOutOfRange(t *testing.T) {
	db := tempDB(t)
	in := strings.NewReader("set 1.5\nq\n")

	_, stderr, err := execute(t, in, "step", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stderr, "beta must be in")
}

func TestStep_EOFPersists(t *testing.T) {
	db := tempDB(t)
	in := strings.NewReader("+\n") // stream ends without an explicit quit

	_, _, err := execute(t, in, "step", "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Steps)
}

func TestStep_Resume(t *testing.T) {
	db := tempDB(t)

	_, _, err := execute(t, strings.NewReader("+\n+\nq\n"), "step", "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	runID := runs[0].ID
	require.NoError(t, st.Close())

	stdout, _, err := execute(t, strings.NewReader("+\nq\n"), "step", "--db", db, "--resume", runID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "β=0.0200") // initial readout picks up the recorded velocity
	assert.Contains(t, stdout, "β=0.0300")
	assert.Contains(t, stdout, "extended")
	assert.Contains(t, stdout, "1 new samples")

	st, err = store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Steps)

	samples, err := st.ReadSamples(context.Background(), runID)
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, int64(3), samples[2].Seq)
	assert.InDelta(t, 0.03, samples[2].Beta, 1e-12)
}

func TestStep_ResumePresetMismatch(t *testing.T) {
	db := tempDB(t)

	_, _, err := execute(t, strings.NewReader("+\nq\n"), "step", "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	runID := runs[0].ID
	require.NoError(t, st.Close())

	presetPath := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(presetPath, []byte("name: other\nproper_time: 5\nproper_length: 10\n"), 0o600))

	_, _, err = execute(t, strings.NewReader("q\n"), "step", "--db", db, "--resume", runID, "--preset", presetPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "not recorded from this preset")
}

func TestStep_ResumeUnknownRun(t *testing.T) {
	db := tempDB(t)

	_, _, err := execute(t, strings.NewReader("q\n"), "step", "--db", db, "--resume", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStep_CSVExport(t *testing.T) {
	db := tempDB(t)
	csvPath := tempDB(t) + ".csv"
	in := strings.NewReader("+\n+\nq\n")

	_, _, err := execute(t, in, "step", "--db", db, "--csv", csvPath)
	require.NoError(t, err)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 3) // header + 2 samples
}
