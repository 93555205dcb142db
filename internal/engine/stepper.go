package engine

import (
	"fmt"

	"github.com/qsis-io/qsis/internal/scenario"
	"github.com/qsis-io/qsis/internal/store"
)

// MaxStepperBeta caps the interactive velocity. Arbitrarily close to c the
// derived quantities explode; 0.99 keeps the readouts legible while still
// showing a gamma of ~7.
const MaxStepperBeta = 0.99

// Stepper holds the interactive session state: a velocity fraction moved
// in fixed increments, with a sample recorded at every change.
//
// Stepper is not safe for concurrent use; the interactive command drives
// it from a single loop.
type Stepper struct {
	beta         float64
	stepSize     float64
	properTime   float64
	properLength float64
	restMass     float64
	clock        *Clock
	samples      []store.Sample
}

// NewStepper creates a stepper from a preset. The preset must already be
// validated.
func NewStepper(p scenario.Preset) *Stepper {
	return &Stepper{
		beta:         p.StartBeta,
		stepSize:     p.StepSize,
		properTime:   p.ProperTime,
		properLength: p.ProperLength,
		restMass:     p.RestMass,
		clock:        NewClock(),
	}
}

// ResumeStepper continues a recorded session: the velocity picks up at
// beta and sequence numbers continue after lastSeq, so appended samples
// extend the original run without colliding.
func ResumeStepper(p scenario.Preset, beta float64, lastSeq int64) *Stepper {
	s := NewStepper(p)
	s.beta = beta
	s.clock = NewClockAt(lastSeq)
	return s
}

// Beta returns the current velocity fraction.
func (s *Stepper) Beta() float64 {
	return s.beta
}

// Increase steps the velocity up, clamped to MaxStepperBeta, and records
// a sample at the new velocity.
func (s *Stepper) Increase() (store.Sample, error) {
	s.beta += s.stepSize
	if s.beta > MaxStepperBeta {
		s.beta = MaxStepperBeta
	}
	return s.record()
}

// Decrease steps the velocity down, clamped to 0, and records a sample.
func (s *Stepper) Decrease() (store.Sample, error) {
	s.beta -= s.stepSize
	if s.beta < 0 {
		s.beta = 0
	}
	return s.record()
}

// Set jumps to an exact velocity fraction and records a sample.
// Values outside [0, MaxStepperBeta] are rejected and leave the state
// unchanged.
func (s *Stepper) Set(beta float64) (store.Sample, error) {
	if beta < 0 || beta > MaxStepperBeta {
		return store.Sample{}, fmt.Errorf("beta must be in [0, %g], got %g", MaxStepperBeta, beta)
	}
	s.beta = beta
	return s.record()
}

// Current computes the sample at the present velocity without recording.
func (s *Stepper) Current() (store.Sample, error) {
	return ComputeSample(s.clock.Current(), s.beta, s.properTime, s.properLength, s.restMass)
}

// Samples returns every recorded sample in order.
func (s *Stepper) Samples() []store.Sample {
	return s.samples
}

func (s *Stepper) record() (store.Sample, error) {
	sample, err := ComputeSample(s.clock.Next(), s.beta, s.properTime, s.properLength, s.restMass)
	if err != nil {
		return store.Sample{}, err
	}
	s.samples = append(s.samples, sample)
	return sample, nil
}
