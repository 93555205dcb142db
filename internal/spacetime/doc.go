// Package spacetime implements flat Minkowski geometry: events, invariant
// intervals, light-cone classification, Lorentz boosts, and piecewise-linear
// worldlines with proper-time integration and chronology diagnostics.
//
// The metric signature is (-,+,+,+): IntervalSquared is negative for
// timelike separations, zero on the light cone, positive for spacelike.
package spacetime
