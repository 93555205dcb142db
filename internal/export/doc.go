// Package export renders recorded samples as CSV files, effect charts,
// and Minkowski diagrams.
package export
