package store

import (
	"context"
	"fmt"
	"time"
)

// BeginRun inserts a new run in the running state.
// Run IDs are caller-supplied (UUIDv7 from the engine's token generator);
// inserting a duplicate ID is an error, not an idempotent no-op, because
// two runs must never share a sample namespace.
func (s *Store) BeginRun(ctx context.Context, id, scenarioName, scenarioHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario_name, scenario_hash, created_at, steps, status)
		VALUES (?, ?, ?, ?, 0, ?)
	`,
		id,
		scenarioName,
		scenarioHash,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// AppendSamples writes a batch of samples for a run inside one
// transaction. Either every sample lands or none do; a partially recorded
// sweep would poison replay verification.
func (s *Store) AppendSamples(ctx context.Context, runID string, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append samples: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples
		(run_id, seq, beta, gamma, proper_time, dilated_time, proper_length, contracted_length, rapidity, doppler, momentum, energy, kinetic_energy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("append samples: %w", err)
	}
	defer stmt.Close()

	for _, sample := range samples {
		if _, err := stmt.ExecContext(ctx,
			runID,
			sample.Seq,
			sample.Beta,
			sample.Gamma,
			sample.ProperTime,
			sample.DilatedTime,
			sample.ProperLength,
			sample.ContractedLength,
			sample.Rapidity,
			sample.Doppler,
			sample.Momentum,
			sample.Energy,
			sample.KineticEnergy,
		); err != nil {
			return fmt.Errorf("append sample seq %d: %w", sample.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append samples: %w", err)
	}
	return nil
}

// FinishRun records the final step count and terminal status.
func (s *Store) FinishRun(ctx context.Context, id string, steps int, status string) error {
	if status != StatusComplete && status != StatusFailed {
		return fmt.Errorf("finish run: invalid terminal status %q", status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET steps = ?, status = ? WHERE id = ?
	`, steps, status, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: run %s not found", id)
	}
	return nil
}
