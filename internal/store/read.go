package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound reports a run ID with no stored record.
var ErrRunNotFound = errors.New("run not found")

// GetRun retrieves a single run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, scenario_name, scenario_hash, created_at, steps, status
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario_name, scenario_hash, created_at, steps, status
		FROM runs ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadSamples returns a run's samples in recorded (seq) order.
// Replay depends on this ordering being exact.
func (s *Store) ReadSamples(ctx context.Context, runID string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, beta, gamma, proper_time, dilated_time, proper_length, contracted_length, rapidity, doppler, momentum, energy, kinetic_energy
		FROM samples WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read samples for %s: %w", runID, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sample Sample
		if err := rows.Scan(
			&sample.Seq,
			&sample.Beta,
			&sample.Gamma,
			&sample.ProperTime,
			&sample.DilatedTime,
			&sample.ProperLength,
			&sample.ContractedLength,
			&sample.Rapidity,
			&sample.Doppler,
			&sample.Momentum,
			&sample.Energy,
			&sample.KineticEnergy,
		); err != nil {
			return nil, fmt.Errorf("read samples for %s: %w", runID, err)
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read samples for %s: %w", runID, err)
	}
	return samples, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var createdAt string
	if err := row.Scan(&run.ID, &run.ScenarioName, &run.ScenarioHash, &createdAt, &run.Steps, &run.Status); err != nil {
		return Run{}, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = parsed
	return run, nil
}
