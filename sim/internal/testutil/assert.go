// Package testutil provides shared test assertions for the nucleation
// engine's test packages.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertVecNear compares two vectors component-wise with absolute tolerance.
func AssertVecNear(t *testing.T, name string, want, got r3.Vec, absTol float64) {
	t.Helper()
	if r3.Norm(r3.Sub(want, got)) > absTol {
		t.Errorf("%s: got %v, want %v (|diff|=%v)", name, got, want, r3.Norm(r3.Sub(want, got)))
	}
}
