package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// LoadingMode selects how the specimen is driven. It decides the resolved
// stress used by the rate law, the de-rating correction, and whether plastic
// twist is tracked.
type LoadingMode string

const (
	// LoadingTension is uniaxial loading along the loading direction.
	LoadingTension LoadingMode = "tension"
	// LoadingTorsion is pure twist about the cylinder axis.
	LoadingTorsion LoadingMode = "torsion"
	// LoadingTensionAfterTorsion is uniaxial loading of a pre-twisted specimen:
	// tension de-rating, torsion stress field, no twist sign enforcement.
	LoadingTensionAfterTorsion LoadingMode = "tension-after-torsion"
)

// validLoadingModes maps accepted loading mode strings.
var validLoadingModes = map[LoadingMode]bool{
	LoadingTension:             true,
	LoadingTorsion:             true,
	LoadingTensionAfterTorsion: true,
}

// IsValidLoadingMode returns true if the given string is a recognized loading mode.
func IsValidLoadingMode(mode string) bool {
	return validLoadingModes[LoadingMode(mode)]
}

// HasTorsion reports whether the mode carries an applied twist.
func (m LoadingMode) HasTorsion() bool {
	return m == LoadingTorsion || m == LoadingTensionAfterTorsion
}

// BoundaryPlane is an internal grain boundary n·x + d = 0.
// Normal need not be unit length; it is normalized at site generation.
type BoundaryPlane struct {
	Normal r3.Vec
	Offset float64
}

// GeometryConfig groups specimen geometry, in Burgers-vector length units.
type GeometryConfig struct {
	Radius   float64        // cylinder radius
	ZMin     float64        // lower axial bound
	ZMax     float64        // upper axial bound
	Boundary *BoundaryPlane // nil = free-surface sites only
	Volume   float64        // simulation volume for strain normalization (0 = cylinder volume)
}

// SimVolume returns the configured volume, or the cylinder volume when unset.
func (g GeometryConfig) SimVolume() float64 {
	if g.Volume > 0 {
		return g.Volume
	}
	return math.Pi * g.Radius * g.Radius * (g.ZMax - g.ZMin)
}

// MaterialConfig groups elastic and lattice constants.
type MaterialConfig struct {
	ShearModulus     float64 // Pa
	PoissonRatio     float64
	BurgersMagnitude float64 // m
}

// YoungsModulus returns E = 2μ(1+ν).
func (m MaterialConfig) YoungsModulus() float64 {
	return 2 * m.ShearModulus * (1 + m.PoissonRatio)
}

// RateLawConfig groups the activation-energy fit Q = A·S^B − C·T·S^D + E
// (S in GPa, Q in eV) and the attempt frequency.
type RateLawConfig struct {
	A, B, C, D, E    float64
	AttemptFrequency float64 // 1/s
	MinStress        float64 // Pa; equivalent stress floor
}

// NucleationConfig groups site population and loop construction parameters.
type NucleationConfig struct {
	SiteCapacity    int     // static upper bound on total site count
	SurfaceSCFMean  float64 // free-surface stress concentration factor mean
	SurfaceSCFStd   float64
	BoundarySCFMean float64 // grain-boundary stress concentration factor mean
	BoundarySCFStd  float64
	LoopRadius      float64 // radius of nucleated loops
	SegmentLength   float64 // target loop segment length
	DisableDerating bool    // keep raw SCF regardless of prior slip
	DeratingCoeff   float64
	Orientation     Orientation
}

// LoadingConfig groups loading-mode parameters.
type LoadingConfig struct {
	Mode      LoadingMode
	Direction r3.Vec  // loading axis; normalized before use
	TwistSign float64 // required sign of the plastic twist increment (+1 or -1)
}

// DomainConfig identifies this process in a spatially decomposed run.
type DomainConfig struct {
	DomainID          int
	CoordinatorDomain int // the only domain that inserts loops
}

// Config is the full engine configuration. It is validated once by NewEngine.
type Config struct {
	Geometry   GeometryConfig
	Material   MaterialConfig
	RateLaw    RateLawConfig
	Nucleation NucleationConfig
	Loading    LoadingConfig
	Domain     DomainConfig
}

// NewGeometryConfig creates a GeometryConfig with free-surface sites only.
func NewGeometryConfig(radius, zMin, zMax float64) GeometryConfig {
	return GeometryConfig{Radius: radius, ZMin: zMin, ZMax: zMax}
}

// NewMaterialConfig creates a MaterialConfig.
func NewMaterialConfig(shearModulus, poisson, burgMag float64) MaterialConfig {
	return MaterialConfig{ShearModulus: shearModulus, PoissonRatio: poisson, BurgersMagnitude: burgMag}
}

// NewLoadingConfig creates a LoadingConfig.
func NewLoadingConfig(mode LoadingMode, direction r3.Vec, twistSign float64) LoadingConfig {
	return LoadingConfig{Mode: mode, Direction: direction, TwistSign: twistSign}
}

// DefaultRateLaw returns the activation-energy fit for surface nucleation in
// Cu (Ryu, Kang & Cai, PNAS 2011).
func DefaultRateLaw() RateLawConfig {
	return RateLawConfig{
		A:                4.811799e+00,
		B:                -2.359345e+00,
		C:                4.742173e-03,
		D:                -2.457447e+00,
		E:                -1.330434e-01,
		AttemptFrequency: 1e13,
		MinStress:        1e9,
	}
}

// DefaultConfig returns a Cu pillar of 150 nm diameter under [001] tension.
func DefaultConfig() Config {
	return Config{
		Geometry: NewGeometryConfig(300, -1500, 1500),
		Material: NewMaterialConfig(54.6e9, 0.324, 2.5e-10),
		RateLaw:  DefaultRateLaw(),
		Nucleation: NucleationConfig{
			SiteCapacity:    2000,
			SurfaceSCFMean:  1.0,
			SurfaceSCFStd:   0.1,
			BoundarySCFMean: 1.5,
			BoundarySCFStd:  0.1,
			LoopRadius:      30,
			SegmentLength:   20,
			DeratingCoeff:   1.0,
			Orientation:     OrientationIdentity,
		},
		Loading: NewLoadingConfig(LoadingTension, r3.Vec{Z: 1}, 1),
	}
}

// Validate checks structural consistency. Physical values (negative stress,
// zero temperature, ...) are deliberately not range-checked.
func (c Config) Validate() error {
	if c.Nucleation.SiteCapacity <= 0 {
		return fmt.Errorf("site capacity must be positive, got %d", c.Nucleation.SiteCapacity)
	}
	if c.Geometry.ZMax < c.Geometry.ZMin {
		return fmt.Errorf("axial bounds inverted: zmin=%g > zmax=%g", c.Geometry.ZMin, c.Geometry.ZMax)
	}
	if !validLoadingModes[c.Loading.Mode] {
		return fmt.Errorf("unknown loading mode %q", c.Loading.Mode)
	}
	if r3.Norm(c.Loading.Direction) == 0 {
		return fmt.Errorf("loading direction must be non-zero")
	}
	if c.Loading.Mode.HasTorsion() && c.Loading.TwistSign == 0 {
		return fmt.Errorf("twist sign must be non-zero under %s loading", c.Loading.Mode)
	}
	if !validOrientations[c.Nucleation.Orientation] {
		return fmt.Errorf("unknown crystal orientation %q", c.Nucleation.Orientation)
	}
	if c.Nucleation.SegmentLength <= 0 {
		return fmt.Errorf("segment length must be positive, got %g", c.Nucleation.SegmentLength)
	}
	if c.Geometry.Boundary != nil && r3.Norm(c.Geometry.Boundary.Normal) == 0 {
		return fmt.Errorf("boundary plane normal must be non-zero")
	}
	return nil
}
