package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsis-io/qsis/internal/relativity"
	"github.com/qsis-io/qsis/internal/store"
)

// goldenSamples uses exact binary-representable milestones so the golden
// file stays readable: 0.6c and 0.8c with their textbook gamma values.
func goldenSamples() []store.Sample {
	return []store.Sample{
		{Seq: 1, Beta: 0, Gamma: 1, ProperTime: 10, DilatedTime: 10, ProperLength: 100, ContractedLength: 100, Rapidity: 0, Doppler: 1},
		{Seq: 2, Beta: 0.6, Gamma: 1.25, ProperTime: 10, DilatedTime: 12.5, ProperLength: 100, ContractedLength: 80, Rapidity: 0.6931471805599453, Doppler: 0.5},
		{Seq: 3, Beta: 0.8, Gamma: 1.6666666666666667, ProperTime: 10, DilatedTime: 13.333333333333334, ProperLength: 100, ContractedLength: 60, Rapidity: 1.0986122886681098, Doppler: 0.3333333333333333},
	}
}

func TestWriteCSV_Golden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, goldenSamples()))

	g := goldie.New(t)
	g.Assert(t, "sweep", buf.Bytes())
}

func TestWriteCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	assert.Equal(t,
		"beta,gamma,proper_time,dilated_time,proper_length,contracted_length,rapidity,doppler,momentum,energy,kinetic_energy\n",
		buf.String())
}

func TestWriteCSV_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteCSV(&a, goldenSamples()))
	require.NoError(t, WriteCSV(&b, goldenSamples()))
	assert.Equal(t, a.String(), b.String())
}

func TestWriteCSV_EnergyColumns(t *testing.T) {
	// Massive samples export the exact values the kinematics produce.
	const m, v = 1.0, 0.6 * relativity.C
	p, err := relativity.Momentum(m, v)
	require.NoError(t, err)
	e, err := relativity.TotalEnergy(m, v)
	require.NoError(t, err)

	var buf bytes.Buffer
	samples := []store.Sample{{Seq: 1, Beta: 0.6, Momentum: p, Energy: e}}
	require.NoError(t, WriteCSV(&buf, samples))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], strconv.FormatFloat(p, 'g', -1, 64))
	assert.Contains(t, lines[1], strconv.FormatFloat(e, 'g', -1, 64))
}

func TestWriteCSV_RoundTripPrecision(t *testing.T) {
	// Shortest round-trip formatting must not lose bits.
	var buf bytes.Buffer
	samples := []store.Sample{{Seq: 1, Beta: 0.123456789012345678, Gamma: 1.0000000000000002}}
	require.NoError(t, WriteCSV(&buf, samples))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "1.0000000000000002")
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSVFile(path, goldenSamples()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "beta,gamma,"))
	assert.Equal(t, 4, strings.Count(string(data), "\n"), "header plus three rows")
}

func TestWriteCSVFile_BadPath(t *testing.T) {
	err := WriteCSVFile(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	assert.Error(t, err)
}
