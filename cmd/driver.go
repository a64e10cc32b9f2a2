package cmd

import (
	sim "github.com/nucsim/nucsim/sim"
)

// LoadingDriver stands in for the outer integration loop: it ramps the
// applied load at a constant rate between engine steps.
type LoadingDriver struct {
	Temperature   float64    `yaml:"temperature"`    // K
	InitialStress [6]float64 `yaml:"initial_stress"` // Pa, Voigt order
	StressRate    [6]float64 `yaml:"stress_rate"`    // Pa/s
	InitialTwist  float64    `yaml:"initial_twist"`  // deg per unit length
	TwistRate     float64    `yaml:"twist_rate"`     // deg per unit length per s
}

// NewState returns the engine state at t = 0.
func (d LoadingDriver) NewState() *sim.State {
	st := sim.NewState(d.Temperature)
	st.AppliedStress = d.InitialStress
	st.AppliedTwist = d.InitialTwist
	return st
}

// Advance ramps the applied load by one step of length dt.
func (d LoadingDriver) Advance(st *sim.State, dt float64) {
	for k := range st.AppliedStress {
		st.AppliedStress[k] += d.StressRate[k] * dt
	}
	st.AppliedTwist += d.TwistRate * dt
}
