package sim

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// NumSlipSystems is the number of {111}<110> slip systems in an FCC crystal.
const NumSlipSystems = 12

// SlipSystem is a slip-plane normal and Burgers-vector direction pair.
// Both vectors are unit length.
type SlipSystem struct {
	Normal  r3.Vec
	Burgers r3.Vec
}

// Orientation selects the crystal direction aligned with the cylinder axis.
type Orientation string

const (
	// OrientationIdentity keeps the cubic frame: [001] along the axis.
	OrientationIdentity Orientation = "001"
	// Orientation110 puts [101] along the axis.
	Orientation110 Orientation = "110"
	// Orientation111 puts [111] along the axis.
	Orientation111 Orientation = "111"
)

var validOrientations = map[Orientation]bool{
	OrientationIdentity: true,
	Orientation110:      true,
	Orientation111:      true,
	"":                  true, // empty defaults to identity
}

// IsValidOrientation returns true if the given string is a recognized orientation.
func IsValidOrientation(o string) bool {
	return validOrientations[Orientation(o)]
}

// FCCSlipSystems returns the 12 slip systems in the {001} reference frame,
// grouped three Burgers directions per plane in the order
// (111), (-111), (1-11), (11-1).
func FCCSlipSystems() [NumSlipSystems]SlipSystem {
	a := 1 / math.Sqrt(3)
	c := 1 / math.Sqrt(2)

	n1 := r3.Vec{X: a, Y: a, Z: a}
	n2 := r3.Vec{X: -a, Y: a, Z: a}
	n3 := r3.Vec{X: a, Y: -a, Z: a}
	n4 := r3.Vec{X: a, Y: a, Z: -a}

	return [NumSlipSystems]SlipSystem{
		{n1, r3.Vec{X: c, Y: -c}},
		{n1, r3.Vec{X: c, Z: -c}},
		{n1, r3.Vec{Y: c, Z: -c}},

		{n2, r3.Vec{X: c, Z: c}},
		{n2, r3.Vec{X: c, Y: c}},
		{n2, r3.Vec{Y: -c, Z: c}},

		{n3, r3.Vec{X: -c, Z: c}},
		{n3, r3.Vec{Y: c, Z: c}},
		{n3, r3.Vec{X: c, Y: c}},

		{n4, r3.Vec{X: c, Z: c}},
		{n4, r3.Vec{Y: c, Z: c}},
		{n4, r3.Vec{X: -c, Y: c}},
	}
}

// OrientationMatrix returns the transform from the cubic frame to the
// simulation frame. Row i is the simulation axis E_i expressed in cubic
// coordinates, so M[i][j] = E_i·e_j.
func OrientationMatrix(o Orientation) *r3.Mat {
	switch o {
	case Orientation110:
		c := 1 / math.Sqrt(2)
		return r3.NewMat([]float64{
			c, 0, -c,
			0, 1, 0,
			c, 0, c,
		})
	case Orientation111:
		a := 1 / math.Sqrt(2)
		b := 1 / math.Sqrt(6)
		c := 1 / math.Sqrt(3)
		return r3.NewMat([]float64{
			a, -a, 0,
			b, b, -2 * b,
			c, c, c,
		})
	default:
		return r3.NewMat([]float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		})
	}
}

// SlipTable returns the FCC slip systems rotated into the simulation frame.
func SlipTable(o Orientation) [NumSlipSystems]SlipSystem {
	m := OrientationMatrix(o)
	table := FCCSlipSystems()
	for i := range table {
		table[i].Normal = m.MulVec(table[i].Normal)
		table[i].Burgers = m.MulVec(table[i].Burgers)
	}
	return table
}

// ResolvedShearStresses returns n·(S·b) for every system in the table.
func ResolvedShearStresses(table *[NumSlipSystems]SlipSystem, stress *r3.Mat) [NumSlipSystems]float64 {
	var rss [NumSlipSystems]float64
	for i, sys := range table {
		rss[i] = project(stress, sys.Normal, sys.Burgers)
	}
	return rss
}

// slipPermutation shuffles the visiting order by swapping every position
// with one drawn from 1..11. Position 0 is never drawn as a swap target, so
// the result is not a uniform permutation.
func slipPermutation(rng *rand.Rand) [NumSlipSystems]int {
	var order [NumSlipSystems]int
	for i := range order {
		order[i] = i
	}
	for i := range order {
		k := rng.Intn(NumSlipSystems-1) + 1
		order[i], order[k] = order[k], order[i]
	}
	return order
}

// maxInOrder visits rss in the given order and returns the index of the
// maximum. Ties resolve to the last co-maximal system visited.
func maxInOrder(rss [NumSlipSystems]float64, order [NumSlipSystems]int) int {
	best := math.Inf(-1)
	bestIdx := order[0]
	for _, i := range order {
		if rss[i] >= best {
			best = rss[i]
			bestIdx = i
		}
	}
	return bestIdx
}

// ResolveSlipSystem picks the system with the maximum resolved shear stress,
// breaking ties through a random visiting order drawn from rng.
func ResolveSlipSystem(table *[NumSlipSystems]SlipSystem, stress *r3.Mat, rng *rand.Rand) (SlipSystem, int) {
	rss := ResolvedShearStresses(table, stress)
	idx := maxInOrder(rss, slipPermutation(rng))
	return table[idx], idx
}
