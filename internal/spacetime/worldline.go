package spacetime

import (
	"fmt"
	"math"

	"github.com/qsis-io/qsis/internal/relativity"
)

// Worldline is an ordered sequence of events traversed by one observer.
// Consecutive events form straight segments; a physical worldline for a
// massive observer has every segment timelike and future-directed.
type Worldline struct {
	Events []Event
}

// Violation categorizes a chronology defect found on a worldline.
type Violation string

const (
	// ViolationSpacelike: a segment requires faster-than-light travel.
	ViolationSpacelike Violation = "SPACELIKE_SEGMENT"

	// ViolationLightlike: a segment moves exactly at c; no massive
	// observer and no proper time elapses along it.
	ViolationLightlike Violation = "LIGHTLIKE_SEGMENT"

	// ViolationPastDirected: a segment runs backward in coordinate time.
	ViolationPastDirected Violation = "PAST_DIRECTED_SEGMENT"

	// ViolationClosedLoop: the worldline returns to its starting event,
	// a closed curve. Combined with timelike segments this would be a
	// closed timelike curve, which flat spacetime forbids.
	ViolationClosedLoop Violation = "CLOSED_LOOP"
)

// ChronologyReport describes the causal health of a worldline.
type ChronologyReport struct {
	// Segments holds one classification per segment, in order.
	Segments []Separation

	// Violations lists each defect with its segment index (or -1 for
	// whole-worldline defects such as a closed loop).
	Violations []SegmentViolation
}

// SegmentViolation ties a violation to the segment where it occurs.
type SegmentViolation struct {
	Segment   int       // index of the offending segment, -1 for the whole worldline
	Violation Violation // what went wrong
}

// Chronological reports whether the worldline is free of violations.
func (r ChronologyReport) Chronological() bool {
	return len(r.Violations) == 0
}

// ProperTime integrates proper time along the worldline in seconds:
// the sum over segments of sqrt(-s^2)/c.
//
// Returns an error if any segment is spacelike, lightlike, or
// past-directed; proper time is only defined along future-directed
// timelike curves. A worldline with fewer than two events has zero
// proper time.
func (w Worldline) ProperTime() (float64, error) {
	var tau float64
	for i := 1; i < len(w.Events); i++ {
		a, b := w.Events[i-1], w.Events[i]
		switch Classify(a, b) {
		case Spacelike:
			return 0, fmt.Errorf("segment %d is spacelike: proper time undefined", i-1)
		case Lightlike:
			return 0, fmt.Errorf("segment %d is lightlike: no proper time elapses", i-1)
		}
		if b.T <= a.T {
			return 0, fmt.Errorf("segment %d is past-directed (t %g -> %g)", i-1, a.T, b.T)
		}
		tau += math.Sqrt(-IntervalSquared(a, b)) / relativity.C
	}
	return tau, nil
}

// CoordinateTime returns the coordinate duration spanned by the worldline.
func (w Worldline) CoordinateTime() float64 {
	if len(w.Events) < 2 {
		return 0
	}
	return w.Events[len(w.Events)-1].T - w.Events[0].T
}

// Chronology classifies every segment and collects causal violations.
// A closed worldline (last event equals first, with at least one segment)
// is flagged ViolationClosedLoop in addition to any per-segment defects.
func (w Worldline) Chronology() ChronologyReport {
	report := ChronologyReport{}

	for i := 1; i < len(w.Events); i++ {
		a, b := w.Events[i-1], w.Events[i]
		sep := Classify(a, b)
		report.Segments = append(report.Segments, sep)

		switch sep {
		case Spacelike:
			report.Violations = append(report.Violations, SegmentViolation{
				Segment: i - 1, Violation: ViolationSpacelike,
			})
		case Lightlike:
			report.Violations = append(report.Violations, SegmentViolation{
				Segment: i - 1, Violation: ViolationLightlike,
			})
		case Timelike:
			if b.T <= a.T {
				report.Violations = append(report.Violations, SegmentViolation{
					Segment: i - 1, Violation: ViolationPastDirected,
				})
			}
		}
	}

	if len(w.Events) >= 3 && w.Events[0] == w.Events[len(w.Events)-1] {
		report.Violations = append(report.Violations, SegmentViolation{
			Segment: -1, Violation: ViolationClosedLoop,
		})
	}

	return report
}

// Boost maps every event of the worldline into the frame moving at v.
func (w Worldline) Boost(v float64) (Worldline, error) {
	out := Worldline{Events: make([]Event, len(w.Events))}
	for i, e := range w.Events {
		boosted, err := Boost(e, v)
		if err != nil {
			return Worldline{}, fmt.Errorf("boost event %d: %w", i, err)
		}
		out.Events[i] = boosted
	}
	return out, nil
}
