package sim

import (
	"bytes"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// ConfigBundle holds engine parameter overrides, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and leave the base Config unchanged.
// String fields use empty string for "not set".
type ConfigBundle struct {
	Geometry   GeometryBundle   `yaml:"geometry"`
	Material   MaterialBundle   `yaml:"material"`
	RateLaw    RateLawBundle    `yaml:"rate_law"`
	Nucleation NucleationBundle `yaml:"nucleation"`
	Loading    LoadingBundle    `yaml:"loading"`
	Domain     DomainBundle     `yaml:"domain"`
}

// GeometryBundle overrides GeometryConfig.
type GeometryBundle struct {
	Radius   *float64        `yaml:"radius"`
	ZMin     *float64        `yaml:"z_min"`
	ZMax     *float64        `yaml:"z_max"`
	Volume   *float64        `yaml:"volume"`
	Boundary *BoundaryBundle `yaml:"boundary"`
}

// BoundaryBundle describes the grain-boundary plane n·x + offset = 0.
type BoundaryBundle struct {
	Normal [3]float64 `yaml:"normal"`
	Offset float64    `yaml:"offset"`
}

// MaterialBundle overrides MaterialConfig.
type MaterialBundle struct {
	ShearModulus     *float64 `yaml:"shear_modulus"`
	PoissonRatio     *float64 `yaml:"poisson_ratio"`
	BurgersMagnitude *float64 `yaml:"burgers_magnitude"`
}

// RateLawBundle overrides RateLawConfig.
type RateLawBundle struct {
	A                *float64 `yaml:"a"`
	B                *float64 `yaml:"b"`
	C                *float64 `yaml:"c"`
	D                *float64 `yaml:"d"`
	E                *float64 `yaml:"e"`
	AttemptFrequency *float64 `yaml:"attempt_frequency"`
	MinStress        *float64 `yaml:"min_stress"`
}

// NucleationBundle overrides NucleationConfig.
type NucleationBundle struct {
	SiteCapacity    *int     `yaml:"site_capacity"`
	SurfaceSCFMean  *float64 `yaml:"surface_scf_mean"`
	SurfaceSCFStd   *float64 `yaml:"surface_scf_std"`
	BoundarySCFMean *float64 `yaml:"boundary_scf_mean"`
	BoundarySCFStd  *float64 `yaml:"boundary_scf_std"`
	LoopRadius      *float64 `yaml:"loop_radius"`
	SegmentLength   *float64 `yaml:"segment_length"`
	DisableDerating *bool    `yaml:"disable_derating"`
	DeratingCoeff   *float64 `yaml:"derating_coeff"`
	Orientation     string   `yaml:"orientation"`
}

// LoadingBundle overrides LoadingConfig.
type LoadingBundle struct {
	Mode      string      `yaml:"mode"`
	Direction *[3]float64 `yaml:"direction"`
	TwistSign *float64    `yaml:"twist_sign"`
}

// DomainBundle overrides DomainConfig.
type DomainBundle struct {
	DomainID          *int `yaml:"domain_id"`
	CoordinatorDomain *int `yaml:"coordinator_domain"`
}

// LoadConfigBundle reads and strictly parses a YAML engine configuration file.
// Unknown keys are errors.
func LoadConfigBundle(path string) (*ConfigBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading engine config: %w", err)
	}
	return ParseConfigBundle(data)
}

// ParseConfigBundle strictly parses YAML engine configuration.
func ParseConfigBundle(data []byte) (*ConfigBundle, error) {
	var bundle ConfigBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing engine config: %w", err)
	}
	return &bundle, nil
}

// Validate checks that names and counts in the bundle are valid.
func (b *ConfigBundle) Validate() error {
	if b.Loading.Mode != "" && !IsValidLoadingMode(b.Loading.Mode) {
		return fmt.Errorf("unknown loading mode %q", b.Loading.Mode)
	}
	if !IsValidOrientation(b.Nucleation.Orientation) {
		return fmt.Errorf("unknown crystal orientation %q", b.Nucleation.Orientation)
	}
	if b.Nucleation.SiteCapacity != nil && *b.Nucleation.SiteCapacity <= 0 {
		return fmt.Errorf("site_capacity must be positive, got %d", *b.Nucleation.SiteCapacity)
	}
	if b.Nucleation.SegmentLength != nil && *b.Nucleation.SegmentLength <= 0 {
		return fmt.Errorf("segment_length must be positive, got %g", *b.Nucleation.SegmentLength)
	}
	if b.Loading.TwistSign != nil && *b.Loading.TwistSign != 1 && *b.Loading.TwistSign != -1 {
		return fmt.Errorf("twist_sign must be 1 or -1, got %g", *b.Loading.TwistSign)
	}
	return nil
}

// Apply writes every set field of the bundle into cfg.
func (b *ConfigBundle) Apply(cfg *Config) {
	g := &cfg.Geometry
	setFloat(&g.Radius, b.Geometry.Radius)
	setFloat(&g.ZMin, b.Geometry.ZMin)
	setFloat(&g.ZMax, b.Geometry.ZMax)
	setFloat(&g.Volume, b.Geometry.Volume)
	if bb := b.Geometry.Boundary; bb != nil {
		g.Boundary = &BoundaryPlane{Normal: vecFrom(bb.Normal), Offset: bb.Offset}
	}

	m := &cfg.Material
	setFloat(&m.ShearModulus, b.Material.ShearModulus)
	setFloat(&m.PoissonRatio, b.Material.PoissonRatio)
	setFloat(&m.BurgersMagnitude, b.Material.BurgersMagnitude)

	r := &cfg.RateLaw
	setFloat(&r.A, b.RateLaw.A)
	setFloat(&r.B, b.RateLaw.B)
	setFloat(&r.C, b.RateLaw.C)
	setFloat(&r.D, b.RateLaw.D)
	setFloat(&r.E, b.RateLaw.E)
	setFloat(&r.AttemptFrequency, b.RateLaw.AttemptFrequency)
	setFloat(&r.MinStress, b.RateLaw.MinStress)

	n := &cfg.Nucleation
	if b.Nucleation.SiteCapacity != nil {
		n.SiteCapacity = *b.Nucleation.SiteCapacity
	}
	setFloat(&n.SurfaceSCFMean, b.Nucleation.SurfaceSCFMean)
	setFloat(&n.SurfaceSCFStd, b.Nucleation.SurfaceSCFStd)
	setFloat(&n.BoundarySCFMean, b.Nucleation.BoundarySCFMean)
	setFloat(&n.BoundarySCFStd, b.Nucleation.BoundarySCFStd)
	setFloat(&n.LoopRadius, b.Nucleation.LoopRadius)
	setFloat(&n.SegmentLength, b.Nucleation.SegmentLength)
	setFloat(&n.DeratingCoeff, b.Nucleation.DeratingCoeff)
	if b.Nucleation.DisableDerating != nil {
		n.DisableDerating = *b.Nucleation.DisableDerating
	}
	if b.Nucleation.Orientation != "" {
		n.Orientation = Orientation(b.Nucleation.Orientation)
	}

	l := &cfg.Loading
	if b.Loading.Mode != "" {
		l.Mode = LoadingMode(b.Loading.Mode)
	}
	if b.Loading.Direction != nil {
		l.Direction = vecFrom(*b.Loading.Direction)
	}
	setFloat(&l.TwistSign, b.Loading.TwistSign)

	if b.Domain.DomainID != nil {
		cfg.Domain.DomainID = *b.Domain.DomainID
	}
	if b.Domain.CoordinatorDomain != nil {
		cfg.Domain.CoordinatorDomain = *b.Domain.CoordinatorDomain
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func vecFrom(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
