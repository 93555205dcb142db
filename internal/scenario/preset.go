package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset supplies the interactive stepper's starting state. Presets are
// YAML so they stay hand-editable without a schema round trip; the full
// scenario pipeline is reserved for batch runs.
type Preset struct {
	// Name labels the recorded session.
	Name string `yaml:"name"`

	// ProperTime is the rest-frame clock interval in seconds.
	ProperTime float64 `yaml:"proper_time"`

	// ProperLength is the rod rest length in meters.
	ProperLength float64 `yaml:"proper_length"`

	// RestMass is the optional rest mass in kilograms (0 when unset);
	// when set, stepped samples carry energy and momentum.
	RestMass float64 `yaml:"rest_mass,omitempty"`

	// StartBeta is the initial velocity fraction.
	StartBeta float64 `yaml:"start_beta,omitempty"`

	// StepSize is the velocity increment per step command.
	StepSize float64 `yaml:"step_size,omitempty"`
}

// DefaultPreset mirrors the tool's original interactive defaults:
// a 10-year clock and a 100-meter rod, stepped in hundredths of c.
func DefaultPreset() Preset {
	return Preset{
		Name:         "interactive",
		ProperTime:   10 * 365.25 * 24 * 3600, // 10 years in seconds
		ProperLength: 100,
		StartBeta:    0,
		StepSize:     0.01,
	}
}

// LoadPreset reads a YAML preset file. Omitted step fields fall back to
// the defaults; zero or negative baselines are rejected.
func LoadPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}

	p := Preset{StepSize: DefaultPreset().StepSize}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("parse preset %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return Preset{}, fmt.Errorf("preset %s: %w", path, err)
	}
	return p, nil
}

// Hash computes the content-addressed identity of the preset, so
// interactive sessions recorded from the same preset share a scenario
// hash in the store.
func (p Preset) Hash() (string, error) {
	m := map[string]any{
		"name":          p.Name,
		"proper_time":   p.ProperTime,
		"proper_length": p.ProperLength,
		"start_beta":    p.StartBeta,
		"step_size":     p.StepSize,
	}
	if p.RestMass != 0 {
		m["rest_mass"] = p.RestMass
	}
	data, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("hash preset %q: %w", p.Name, err)
	}
	return hashWithDomain(DomainPreset, data), nil
}

// Validate checks preset bounds.
func (p Preset) Validate() error {
	if p.ProperTime <= 0 {
		return fmt.Errorf("proper_time must be positive, got %g", p.ProperTime)
	}
	if p.ProperLength <= 0 {
		return fmt.Errorf("proper_length must be positive, got %g", p.ProperLength)
	}
	if p.RestMass < 0 {
		return fmt.Errorf("rest_mass must be nonnegative, got %g", p.RestMass)
	}
	if p.StartBeta < 0 || p.StartBeta >= 1 {
		return fmt.Errorf("start_beta must be in [0, 1), got %g", p.StartBeta)
	}
	if p.StepSize <= 0 || p.StepSize >= 1 {
		return fmt.Errorf("step_size must be in (0, 1), got %g", p.StepSize)
	}
	return nil
}
