package sim

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// SchmidFactor is the maximum FCC Schmid factor, 1/√6, for [001] loading.
	SchmidFactor = 0.408248290463863

	// BoltzmannEV is k_B in eV/K.
	BoltzmannEV = 8.6173324e-5

	// slipPlaneAngle is the angle between the primary slip plane and the
	// loading axis used to convert slip counts to axial strain.
	slipPlaneAngle = 22.6375 * math.Pi / 180

	// gaugeLengthFactor sets the gauge length L0 = gaugeLengthFactor·R.
	gaugeLengthFactor = 10.0
)

// ProbabilityModel computes per-site nucleation probabilities for one step.
type ProbabilityModel struct {
	cfg Config
	dir r3.Vec // unit loading direction
}

// NewProbabilityModel creates a ProbabilityModel for a validated config.
func NewProbabilityModel(cfg Config) *ProbabilityModel {
	return &ProbabilityModel{cfg: cfg, dir: r3.Unit(cfg.Loading.Direction)}
}

// SiteProbability is the intermediate result for one site.
type SiteProbability struct {
	NominalStress float64 // |ℓ·S·ℓ|, Pa
	ResolvedShear float64 // Schmid-resolved stress before SCF, Pa
	SCF           float64 // de-rated stress concentration factor
	Equivalent    float64 // floored equivalent uniaxial stress, Pa
	Activation    float64 // eV
	Probability   float64
}

// Site evaluates the rate law at one site. dt is the step length in seconds.
func (m *ProbabilityModel) Site(site *NucleationSite, st *State, dt float64) SiteProbability {
	cfg := m.cfg
	stress := LocalStress(st, cfg.Material, cfg.Loading.Mode, site.Position)
	nominal := math.Abs(project(stress, m.dir, m.dir))
	resolved := nominal * SchmidFactor
	if cfg.Loading.Mode == LoadingTorsion {
		r := math.Hypot(site.Position.X, site.Position.Y)
		resolved = cfg.Material.ShearModulus * r * (st.AppliedTwist * math.Pi / 180) * SchmidFactor
	}

	scf := m.derate(site, st, nominal)

	equiv := resolved * scf / SchmidFactor
	if equiv <= cfg.RateLaw.MinStress {
		equiv = cfg.RateLaw.MinStress
	}
	q := ActivationEnergy(cfg.RateLaw, equiv, st.Temperature)
	return SiteProbability{
		NominalStress: nominal,
		ResolvedShear: resolved,
		SCF:           scf,
		Equivalent:    equiv,
		Activation:    q,
		Probability:   dt * cfg.RateLaw.AttemptFrequency * math.Exp(-q/(BoltzmannEV*st.Temperature)),
	}
}

// derate lowers the raw SCF of a site that has already nucleated loops, so
// repeated slip delocalizes from the surface. Tension modes correct for the
// axial strain and the sheared-off cross-section; pure torsion corrects for
// the plastic twist and the shortened gauge.
func (m *ProbabilityModel) derate(site *NucleationSite, st *State, nominal float64) float64 {
	cfg := m.cfg
	if cfg.Nucleation.DisableDerating {
		return site.SCF
	}
	slip := float64(site.Count)
	radius := cfg.Geometry.Radius
	l0 := gaugeLengthFactor * radius
	k := cfg.Nucleation.DeratingCoeff

	if cfg.Loading.Mode == LoadingTorsion {
		thetaPlastic := slip / (math.Pi * radius * radius) * (180 / math.Pi)
		return site.SCF * (1 - k*thetaPlastic/st.AppliedTwist) * (l0 / (l0 - slip))
	}

	strain := slip / l0 * math.Cos(slipPlaneAngle)
	dS := slip*math.Sqrt(4*radius*radius-slip*slip)/2 + 2*radius*radius*math.Asin(slip/(2*radius))
	area := math.Pi * radius * radius
	return site.SCF * (1 - k*cfg.Material.YoungsModulus()*strain/nominal) * (area / (area - dS))
}

// ActivationEnergy returns Q = A·S^B − C·T·S^D + E in eV with S the stress
// in GPa.
func ActivationEnergy(law RateLawConfig, stress, temperature float64) float64 {
	s := stress / 1e9
	return law.A*math.Pow(s, law.B) - law.C*temperature*math.Pow(s, law.D) + law.E
}

// CumulativeDistribution returns the prefix sums of p. When the total
// exceeds one the whole array is rescaled by 1/total, preserving relative
// weights; total is the pre-normalization sum.
func CumulativeDistribution(p []float64) (cum []float64, total float64, normalized bool) {
	cum = make([]float64, len(p))
	if len(p) == 0 {
		return cum, 0, false
	}
	floats.CumSum(cum, p)
	total = cum[len(cum)-1]
	if total > 1 {
		floats.Scale(1/total, cum)
		normalized = true
	}
	return cum, total, normalized
}

// Update recomputes Probability and Cumulative for every site, in order.
// It returns the pre-normalization aggregate probability.
func (m *ProbabilityModel) Update(sites *SiteSet, st *State, dt float64) float64 {
	p := make([]float64, sites.Len())
	for i := range sites.Sites {
		p[i] = m.Site(&sites.Sites[i], st, dt).Probability
		sites.Sites[i].Probability = p[i]
	}
	cum, total, normalized := CumulativeDistribution(p)
	if normalized {
		logrus.Warnf("aggregate nucleation probability %.4f exceeds 1; rescaling cumulative distribution", total)
	}
	for i := range sites.Sites {
		sites.Sites[i].Cumulative = cum[i]
	}
	return total
}
