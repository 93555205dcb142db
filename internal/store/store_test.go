package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file should exist")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	// Schema intact after repeated opens.
	var count int
	err = s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	assert.NoError(t, err)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	s.Close()

	_, err = Open(path)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", "gamma-sweep", "hash-1"))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, "gamma-sweep", run.ScenarioName)
	assert.Equal(t, "hash-1", run.ScenarioHash)
	assert.Zero(t, run.Steps)
	assert.False(t, run.CreatedAt.IsZero())

	require.NoError(t, s.FinishRun(ctx, "run-1", 100, StatusComplete))

	run, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, run.Status)
	assert.Equal(t, 100, run.Steps)
}

func TestBeginRun_DuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", "a", "h"))
	assert.Error(t, s.BeginRun(ctx, "run-1", "b", "h"), "duplicate run IDs must be rejected")
}

func TestFinishRun_InvalidStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", "a", "h"))
	assert.Error(t, s.FinishRun(ctx, "run-1", 1, "running"))
	assert.Error(t, s.FinishRun(ctx, "run-1", 1, "banana"))
}

func TestFinishRun_NotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.FinishRun(context.Background(), "absent", 1, StatusComplete)
	assert.ErrorContains(t, err, "not found")
}

func TestGetRun_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestAppendAndReadSamples(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", "a", "h"))

	samples := []Sample{
		{Seq: 1, Beta: 0, Gamma: 1, ProperTime: 10, DilatedTime: 10, ProperLength: 100, ContractedLength: 100, Rapidity: 0, Doppler: 1},
		{Seq: 2, Beta: 0.6, Gamma: 1.25, ProperTime: 10, DilatedTime: 12.5, ProperLength: 100, ContractedLength: 80, Rapidity: 0.6931, Doppler: 0.5},
	}
	require.NoError(t, s.AppendSamples(ctx, "run-1", samples))

	got, err := s.ReadSamples(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestAppendSamples_Empty(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.AppendSamples(context.Background(), "run-1", nil))
}

func TestAppendSamples_ForeignKey(t *testing.T) {
	s := openTestStore(t)
	err := s.AppendSamples(context.Background(), "absent-run", []Sample{{Seq: 1}})
	assert.Error(t, err, "samples require an existing run")
}

func TestAppendSamples_DuplicateSeqAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", "a", "h"))
	require.NoError(t, s.AppendSamples(ctx, "run-1", []Sample{{Seq: 1}}))

	// Batch with a conflicting seq fails and leaves nothing behind.
	err := s.AppendSamples(ctx, "run-1", []Sample{{Seq: 2}, {Seq: 1}})
	require.Error(t, err)

	got, err := s.ReadSamples(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed batch must not be partially applied")
}

func TestReadSamples_SeqOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", "a", "h"))
	// Insert out of order; reads must come back ordered.
	require.NoError(t, s.AppendSamples(ctx, "run-1", []Sample{{Seq: 3}, {Seq: 1}, {Seq: 2}}))

	got, err := s.ReadSamples(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(2), got[1].Seq)
	assert.Equal(t, int64(3), got[2].Seq)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-a", "first", "h1"))
	require.NoError(t, s.BeginRun(ctx, "run-b", "second", "h2"))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Same timestamp resolution can tie; ID descending breaks the tie.
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)
}

func TestListRuns_Empty(t *testing.T) {
	s := openTestStore(t)
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}
