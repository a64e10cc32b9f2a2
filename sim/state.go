package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Voigt-style component order shared by applied stress, plastic strain and
// plastic spin: xx, yy, zz, yz, xz, xy.
const (
	XX = iota
	YY
	ZZ
	YZ
	XZ
	XY
)

// Accumulators is the plastic bookkeeping owned by the surrounding
// simulation and mutated by loop insertion.
type Accumulators struct {
	PlasticStrain   [6]float64
	PlasticSpin     [6]float64
	PlasticTwist    float64 // torsion modes only
	Nucleations     int
	SlipSystemUsage [NumSlipSystems]int
}

// State is the per-run context the engine reads and mutates each step.
// The outer integration loop updates AppliedStress, AppliedTwist and
// Temperature between steps.
type State struct {
	AppliedStress [6]float64 // Pa, Voigt order
	AppliedTwist  float64    // degrees per unit length
	Temperature   float64    // K
	Accumulators  Accumulators
}

// NewState creates a State with zero applied load.
func NewState(temperature float64) *State {
	return &State{Temperature: temperature}
}

// StressTensor builds the symmetric 3×3 tensor from six Voigt components.
func StressTensor(s [6]float64) *r3.Mat {
	return r3.NewMat([]float64{
		s[XX], s[XY], s[XZ],
		s[XY], s[YY], s[YZ],
		s[XZ], s[YZ], s[ZZ],
	})
}

// LocalStress returns the stress tensor at pos. Under torsion the shear field
// of a twisted cylinder, μθ(−y, x) in the xz/yz components, is superposed on
// the applied stress.
func LocalStress(st *State, mat MaterialConfig, mode LoadingMode, pos r3.Vec) *r3.Mat {
	s := st.AppliedStress
	if mode.HasTorsion() {
		theta := st.AppliedTwist * math.Pi / 180
		s[YZ] += pos.X * mat.ShearModulus * theta
		s[XZ] -= pos.Y * mat.ShearModulus * theta
	}
	return StressTensor(s)
}

// project returns u·(S·v).
func project(stress *r3.Mat, u, v r3.Vec) float64 {
	return r3.Dot(u, stress.MulVec(v))
}

func vecArray(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
