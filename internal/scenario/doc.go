// Package scenario defines the simulation scenario model and its CUE
// compilation pipeline.
//
// Scenario files are CUE documents validated against the embedded schema
// and compiled into a Scenario value. The canonical JSON form of a compiled
// scenario yields a content-addressed hash that is stored with every run;
// replay verifies a run against the hash of the scenario that produced it.
package scenario
