package scenario

import (
	"fmt"

	"github.com/qsis-io/qsis/internal/spacetime"
)

// Scenario describes one simulation: baseline proper quantities, a velocity
// sweep, and optional named observers and a worldline to diagnose.
type Scenario struct {
	// Name uniquely identifies the scenario.
	Name string

	// Description explains what the scenario demonstrates.
	Description string

	// ProperTime is the rest-frame clock interval, in seconds.
	ProperTime float64

	// ProperLength is the rest length of the measured rod, in meters.
	ProperLength float64

	// RestMass is the optional rest mass in kilograms (0 when unset).
	// When set, energy and momentum columns are meaningful.
	RestMass float64

	// Sweep is the velocity range the engine walks.
	Sweep Sweep

	// Observers are optional named frames, each at a fixed beta.
	Observers []Observer

	// Worldline is an optional event sequence for chronology diagnostics
	// and diagram rendering.
	Worldline []spacetime.Event
}

// Sweep defines an inclusive velocity range in fractions of c.
// The engine samples Steps+1 evenly spaced values from Start to Stop;
// Steps == 0 means the single value Start.
type Sweep struct {
	Start float64
	Stop  float64
	Steps int
}

// Beta returns the sampled velocity fraction for step i in [0, Steps].
// The last step lands exactly on Stop.
func (s Sweep) Beta(i int) float64 {
	if s.Steps <= 0 {
		return s.Start
	}
	if i >= s.Steps {
		return s.Stop
	}
	return s.Start + (s.Stop-s.Start)*float64(i)/float64(s.Steps)
}

// Count returns the number of samples the sweep produces.
func (s Sweep) Count() int {
	if s.Steps <= 0 {
		return 1
	}
	return s.Steps + 1
}

// Observer is a named inertial frame at a fixed fraction of c.
type Observer struct {
	Name string
	Beta float64
}

// canonicalMap flattens the scenario into plain Go values for canonical
// JSON hashing. Field order is irrelevant: canonical marshaling sorts keys.
// Optional fields are omitted entirely when unset so adding one later
// changes the hash only for scenarios that use it.
func (s *Scenario) canonicalMap() map[string]any {
	m := map[string]any{
		"name":          s.Name,
		"proper_time":   s.ProperTime,
		"proper_length": s.ProperLength,
		"sweep": map[string]any{
			"start": s.Sweep.Start,
			"stop":  s.Sweep.Stop,
			"steps": s.Sweep.Steps,
		},
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if s.RestMass != 0 {
		m["rest_mass"] = s.RestMass
	}
	if len(s.Observers) > 0 {
		observers := make([]any, len(s.Observers))
		for i, o := range s.Observers {
			observers[i] = map[string]any{"name": o.Name, "beta": o.Beta}
		}
		m["observers"] = observers
	}
	if len(s.Worldline) > 0 {
		events := make([]any, len(s.Worldline))
		for i, e := range s.Worldline {
			events[i] = map[string]any{"t": e.T, "x": e.X, "y": e.Y, "z": e.Z}
		}
		m["worldline"] = events
	}
	return m
}

// Hash computes the content-addressed identity of the scenario.
// Two scenarios hash equal exactly when every parameter that affects the
// sample set is equal.
func (s *Scenario) Hash() (string, error) {
	data, err := MarshalCanonical(s.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("hash scenario %q: %w", s.Name, err)
	}
	return hashWithDomain(DomainScenario, data), nil
}
