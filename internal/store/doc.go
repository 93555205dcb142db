// Package store provides durable storage for simulation runs and their
// samples. Uses SQLite with WAL mode for concurrent read access.
//
// A run is the unit of persistence: one row in runs, N ordered rows in
// samples. Samples are append-only; replay reads them back in exact
// recorded order to verify determinism.
package store
