// Package relativity implements special-relativistic kinematics: the
// Lorentz factor, time dilation, length contraction, relativistic velocity
// addition, rapidity, longitudinal Doppler shift, and the relativistic
// energy-momentum relations.
//
// All velocities are in meters per second unless a function name says beta,
// in which case the value is a fraction of c. Every function that can be
// handed an unphysical input returns a *DomainError describing which
// quantity violated which constraint.
package relativity
