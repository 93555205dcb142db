// Package cli implements the qsis command surface: validating scenario
// files, running sweeps, interactive stepping, replay verification,
// listing runs, chart rendering, and the auto-simulation watch mode.
package cli
