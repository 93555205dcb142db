// Package engine executes simulation scenarios deterministically.
//
// The engine walks a scenario's velocity sweep in a single goroutine,
// stamping every sample with a monotonic sequence number and persisting
// the whole sweep atomically. Determinism is the contract: the same
// scenario with the same run token produces an identical sample set, and
// Replay verifies a stored run against a fresh computation.
package engine
