package spacetime

import (
	"fmt"
	"math"

	"github.com/qsis-io/qsis/internal/relativity"
)

// Event is a point in flat spacetime: coordinate time T in seconds and
// spatial position X, Y, Z in meters, all in one inertial frame.
type Event struct {
	T float64 `json:"t"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Separation classifies the invariant interval between two events.
type Separation int

const (
	// Timelike: a massive observer can travel between the events.
	Timelike Separation = iota
	// Lightlike: only light connects the events (null interval).
	Lightlike
	// Spacelike: the events are causally disconnected.
	Spacelike
)

// String returns the lowercase name of the separation.
func (s Separation) String() string {
	switch s {
	case Timelike:
		return "timelike"
	case Lightlike:
		return "lightlike"
	case Spacelike:
		return "spacelike"
	default:
		return fmt.Sprintf("separation(%d)", int(s))
	}
}

// ConePosition locates an event relative to the light cone of an origin
// event.
type ConePosition int

const (
	// Future: inside or on the future light cone (causally reachable).
	Future ConePosition = iota
	// Past: inside or on the past light cone.
	Past
	// Elsewhere: spacelike separated, outside both cones.
	Elsewhere
)

// String returns the lowercase name of the cone position.
func (p ConePosition) String() string {
	switch p {
	case Future:
		return "future"
	case Past:
		return "past"
	case Elsewhere:
		return "elsewhere"
	default:
		return fmt.Sprintf("cone(%d)", int(p))
	}
}

// nullTolerance is the relative tolerance for deciding an interval sits on
// the light cone. Classification compares s^2 against the magnitude scale
// (c dt)^2 + |dx|^2 so the tolerance is meaningful at any distance.
const nullTolerance = 1e-9

// IntervalSquared computes the invariant interval between two events with
// signature (-,+,+,+), in meters squared:
//
//	s^2 = -(c dt)^2 + dx^2 + dy^2 + dz^2
//
// The value is frame-invariant: Boost preserves it.
func IntervalSquared(a, b Event) float64 {
	dt := relativity.C * (b.T - a.T)
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return -dt*dt + dx*dx + dy*dy + dz*dz
}

// Classify determines whether two events are timelike, lightlike, or
// spacelike separated. Intervals within nullTolerance of the cone
// (relative to the coordinate scale of the pair) classify as Lightlike;
// two identical events are Lightlike (the degenerate null interval).
func Classify(a, b Event) Separation {
	s2 := IntervalSquared(a, b)

	dt := relativity.C * (b.T - a.T)
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	scale := dt*dt + dx*dx + dy*dy + dz*dz

	if math.Abs(s2) <= nullTolerance*scale || scale == 0 {
		return Lightlike
	}
	if s2 < 0 {
		return Timelike
	}
	return Spacelike
}

// Cone locates e relative to the light cone of origin. Events on the cone
// itself count as Future or Past by the sign of their time offset; the
// origin itself is Future (an event trivially reaches itself).
func Cone(origin, e Event) ConePosition {
	if Classify(origin, e) == Spacelike {
		return Elsewhere
	}
	if e.T >= origin.T {
		return Future
	}
	return Past
}

// Boost applies a Lorentz boost along the x axis with velocity v, mapping
// the event's coordinates into the frame moving at v relative to the
// original frame:
//
//	t' = gamma (t - v x / c^2)
//	x' = gamma (x - v t)
//
// y and z are unchanged. Returns a DomainError from the relativity package
// if |v| >= c.
//
// INVARIANT: Boost(Boost(e, v), -v) round-trips to e (up to float error),
// and IntervalSquared between any two events is preserved.
func Boost(e Event, v float64) (Event, error) {
	gamma, err := relativity.LorentzFactor(v)
	if err != nil {
		return Event{}, err
	}
	return Event{
		T: gamma * (e.T - v*e.X/relativity.C2),
		X: gamma * (e.X - v*e.T),
		Y: e.Y,
		Z: e.Z,
	}, nil
}
