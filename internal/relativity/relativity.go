package relativity

import "math"

// C is the speed of light in vacuum, in meters per second (exact, SI).
const C = 299792458.0

// C2 is c squared, precomputed for interval and energy arithmetic.
const C2 = C * C

// LorentzFactor computes gamma = 1 / sqrt(1 - v^2/c^2) for a velocity v in
// meters per second.
//
// Returns ErrCodeSuperluminal if |v| >= c: gamma diverges at the light
// barrier and is undefined beyond it. Returns ErrCodeNonFinite for NaN or
// infinite v.
//
// INVARIANTS:
//   - LorentzFactor(0) == 1 exactly
//   - gamma is strictly increasing in |v| on [0, c)
func LorentzFactor(v float64) (float64, error) {
	if !isFinite(v) {
		return 0, nonFinite("velocity", v)
	}
	if math.Abs(v) >= C {
		return 0, superluminal("velocity", v)
	}
	return 1 / math.Sqrt(1-(v*v)/C2), nil
}

// GammaFromBeta computes the Lorentz factor from beta = v/c.
// Same domain rules as LorentzFactor, expressed on |beta| < 1.
func GammaFromBeta(beta float64) (float64, error) {
	if !isFinite(beta) {
		return 0, nonFinite("beta", beta)
	}
	if math.Abs(beta) >= 1 {
		return 0, superluminal("beta", beta)
	}
	return 1 / math.Sqrt(1-beta*beta), nil
}

// TimeDilation computes the coordinate duration of a clock's proper
// interval as measured by an observer moving at v relative to the clock:
// dt = gamma * dtau. The result is never less than properTime.
func TimeDilation(properTime, v float64) (float64, error) {
	if !isFinite(properTime) {
		return 0, nonFinite("proper_time", properTime)
	}
	gamma, err := LorentzFactor(v)
	if err != nil {
		return 0, err
	}
	return properTime * gamma, nil
}

// LengthContraction computes the length of a rod of rest length
// properLength as measured by an observer moving at v along the rod:
// L = L0 / gamma. The result is never greater than properLength.
func LengthContraction(properLength, v float64) (float64, error) {
	if !isFinite(properLength) {
		return 0, nonFinite("proper_length", properLength)
	}
	gamma, err := LorentzFactor(v)
	if err != nil {
		return 0, err
	}
	return properLength / gamma, nil
}

// VelocityAddition composes two collinear velocities relativistically:
// w = (u + v) / (1 + uv/c^2).
//
// INVARIANT: composing two subluminal velocities yields a subluminal
// velocity. Adding 0 is the identity.
func VelocityAddition(u, v float64) (float64, error) {
	if !isFinite(u) {
		return 0, nonFinite("velocity", u)
	}
	if !isFinite(v) {
		return 0, nonFinite("velocity", v)
	}
	if math.Abs(u) >= C {
		return 0, superluminal("velocity", u)
	}
	if math.Abs(v) >= C {
		return 0, superluminal("velocity", v)
	}
	return (u + v) / (1 + (u*v)/C2), nil
}

// Rapidity computes phi = atanh(v/c). Rapidities add linearly under
// collinear boosts, which makes them the natural coordinate for velocity
// sweeps.
func Rapidity(v float64) (float64, error) {
	if !isFinite(v) {
		return 0, nonFinite("velocity", v)
	}
	if math.Abs(v) >= C {
		return 0, superluminal("velocity", v)
	}
	return math.Atanh(v / C), nil
}

// DopplerFactor computes the relativistic longitudinal Doppler factor
// f_observed / f_emitted for a source moving at speed v (v >= 0).
//
// receding selects the red-shifted branch sqrt((1-beta)/(1+beta)); an
// approaching source gives the blue-shifted reciprocal.
func DopplerFactor(v float64, receding bool) (float64, error) {
	if !isFinite(v) {
		return 0, nonFinite("velocity", v)
	}
	if v < 0 {
		return 0, &DomainError{
			Code:     ErrCodeNegativeSpeed,
			Quantity: "velocity",
			Value:    v,
			Message:  "speed must be nonnegative; direction is the receding flag",
		}
	}
	if v >= C {
		return 0, superluminal("velocity", v)
	}
	beta := v / C
	if receding {
		return math.Sqrt((1 - beta) / (1 + beta)), nil
	}
	return math.Sqrt((1 + beta) / (1 - beta)), nil
}

// Momentum computes relativistic momentum p = gamma * m * v for rest mass
// m in kilograms. Returns ErrCodeNonPositiveMass for m <= 0.
func Momentum(m, v float64) (float64, error) {
	if err := checkMass(m); err != nil {
		return 0, err
	}
	gamma, err := LorentzFactor(v)
	if err != nil {
		return 0, err
	}
	return gamma * m * v, nil
}

// TotalEnergy computes E = gamma * m * c^2 in joules.
func TotalEnergy(m, v float64) (float64, error) {
	if err := checkMass(m); err != nil {
		return 0, err
	}
	gamma, err := LorentzFactor(v)
	if err != nil {
		return 0, err
	}
	return gamma * m * C2, nil
}

// KineticEnergy computes T = (gamma - 1) * m * c^2 in joules.
// KineticEnergy(m, 0) == 0.
func KineticEnergy(m, v float64) (float64, error) {
	if err := checkMass(m); err != nil {
		return 0, err
	}
	gamma, err := LorentzFactor(v)
	if err != nil {
		return 0, err
	}
	return (gamma - 1) * m * C2, nil
}

func checkMass(m float64) error {
	if !isFinite(m) {
		return nonFinite("mass", m)
	}
	if m <= 0 {
		return &DomainError{
			Code:     ErrCodeNonPositiveMass,
			Quantity: "mass",
			Value:    m,
			Message:  "rest mass must be positive",
		}
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
