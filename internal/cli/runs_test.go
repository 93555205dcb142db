package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuns_Empty(t *testing.T) {
	db := tempDB(t)

	stdout, _, err := execute(t, nil, "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "no runs recorded")
}

func TestRuns_ListsRuns(t *testing.T) {
	db := tempDB(t)
	first := runScenario(t, db, "testdata/scenarios/gamma_sweep.cue")
	second := runScenario(t, db, "testdata/scenarios/twin.cue")

	stdout, _, err := execute(t, nil, "runs", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, stdout, "RUN ID")
	assert.Contains(t, stdout, first)
	assert.Contains(t, stdout, second)
	// Newest first: the twin run was recorded after the gamma sweep.
	assert.Less(t, strings.Index(stdout, second), strings.Index(stdout, first))
}

func TestRuns_JSON(t *testing.T) {
	db := tempDB(t)
	runScenario(t, db, "testdata/scenarios/gamma_sweep.cue")

	stdout, _, err := execute(t, nil, "--format", "json", "runs", "--db", db)
	require.NoError(t, err)

	resp := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	list, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	run, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "gamma-sweep", run["scenario_name"])
	assert.Equal(t, "complete", run["status"])
}
