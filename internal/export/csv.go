package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/qsis-io/qsis/internal/store"
)

// csvHeader is the column order for sample exports. Replayed exports must
// be byte-identical, so the header and the float formatting never depend
// on runtime state.
var csvHeader = []string{
	"beta",
	"gamma",
	"proper_time",
	"dilated_time",
	"proper_length",
	"contracted_length",
	"rapidity",
	"doppler",
	"momentum",
	"energy",
	"kinetic_energy",
}

// WriteCSV writes samples in recorded order. Floats use the shortest
// representation that round-trips, so exports are stable across runs and
// lossless to reimport.
func WriteCSV(w io.Writer, samples []store.Sample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, s := range samples {
		record := []string{
			formatFloat(s.Beta),
			formatFloat(s.Gamma),
			formatFloat(s.ProperTime),
			formatFloat(s.DilatedTime),
			formatFloat(s.ProperLength),
			formatFloat(s.ContractedLength),
			formatFloat(s.Rapidity),
			formatFloat(s.Doppler),
			formatFloat(s.Momentum),
			formatFloat(s.Energy),
			formatFloat(s.KineticEnergy),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row seq %d: %w", s.Seq, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes samples to a file, creating or truncating it.
func WriteCSVFile(path string, samples []store.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := WriteCSV(f, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
