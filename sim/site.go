package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrSiteCapacityExceeded is returned when the derived site count does not
// fit the configured static capacity. It is unrecoverable for the run.
var ErrSiteCapacityExceeded = errors.New("nucleation site capacity exceeded")

// SCF acceptance caps for the free-surface and grain-boundary populations.
const (
	surfaceSCFCap  = 3.0
	boundarySCFCap = 5.0
)

// NucleationSite is a candidate location for a new dislocation loop.
type NucleationSite struct {
	ID         int
	Position   r3.Vec
	SCF        float64 // stress concentration factor, > 0
	OnBoundary bool

	Probability float64 // this step
	Cumulative  float64 // prefix sum over sites, this step
	Flagged     bool    // selected by this step's KMC draw
	Count       int     // loops nucleated here so far
}

// SiteSet is the ordered site array: free-surface sites first, then
// grain-boundary sites.
type SiteSet struct {
	Sites        []NucleationSite
	SurfaceCount int
}

// Len returns the total number of sites.
func (s *SiteSet) Len() int { return len(s.Sites) }

// BoundaryCount returns the number of grain-boundary sites.
func (s *SiteSet) BoundaryCount() int { return len(s.Sites) - s.SurfaceCount }

// SiteCounts derives the free-surface count from the specimen radius (one
// site per nanometre of radius) and adds 1/π as many boundary sites when a
// boundary is present. Non-positive and NaN counts clamp to zero.
func SiteCounts(radius, burgMag float64, boundary bool) (surface, onBoundary, total int) {
	if n := math.Floor(radius*burgMag*1e9 + 1); n > 0 {
		surface = int(n)
	}
	if boundary {
		onBoundary = int(math.Floor(float64(surface) / math.Pi))
	}
	return surface, onBoundary, surface + onBoundary
}

// GenerateSites places all sites and draws their stress concentration
// factors from rng. It fails with ErrSiteCapacityExceeded before drawing
// anything if the count exceeds cfg.Nucleation.SiteCapacity.
func GenerateSites(cfg Config, rng *rand.Rand) (*SiteSet, error) {
	geo := cfg.Geometry
	nuc := cfg.Nucleation
	surface, _, total := SiteCounts(geo.Radius, cfg.Material.BurgersMagnitude, geo.Boundary != nil)
	if total > nuc.SiteCapacity {
		return nil, fmt.Errorf("%w: capacity %d is smaller than %d required sites",
			ErrSiteCapacityExceeded, nuc.SiteCapacity, total)
	}

	set := &SiteSet{Sites: make([]NucleationSite, 0, total), SurfaceCount: surface}
	for i := 0; i < surface; i++ {
		pos := surfacePoint(geo, rng)
		scf := drawSCF(rng, nuc.SurfaceSCFMean, nuc.SurfaceSCFStd, surfaceSCFCap)
		set.Sites = append(set.Sites, NucleationSite{ID: i, Position: pos, SCF: scf})
	}

	if geo.Boundary != nil {
		n := r3.Unit(geo.Boundary.Normal)
		d := geo.Boundary.Offset / r3.Norm(geo.Boundary.Normal)
		for i := surface; i < total; i++ {
			candidate := surfacePoint(geo, rng)
			side := rng.Float64()
			// Orthogonal projection onto n·x + d = 0, then step one loop
			// radius off the plane so the loop does not straddle it.
			onPlane := r3.Sub(candidate, r3.Scale(r3.Dot(n, candidate)+d, n))
			offset := nuc.LoopRadius
			if side <= 0.5 {
				offset = -offset
			}
			pos := r3.Add(onPlane, r3.Scale(offset, n))
			scf := drawSCF(rng, nuc.BoundarySCFMean, nuc.BoundarySCFStd, boundarySCFCap)
			set.Sites = append(set.Sites, NucleationSite{ID: i, Position: pos, SCF: scf, OnBoundary: true})
		}
	}
	return set, nil
}

// surfacePoint draws a point uniformly in angle and axial position on the
// lateral surface. The axial coordinate is centred on zero.
func surfacePoint(geo GeometryConfig, rng *rand.Rand) r3.Vec {
	u1 := rng.Float64()
	u2 := rng.Float64()
	height := geo.ZMax - geo.ZMin
	return r3.Vec{
		X: geo.Radius * math.Cos(2*math.Pi*u1),
		Y: geo.Radius * math.Sin(2*math.Pi*u1),
		Z: (u2 - 0.5) * height,
	}
}

// drawSCF draws |N(mean, sd)|.
//
// The resample predicate joins its bounds with AND, so it never holds and
// the first draw is always kept.
func drawSCF(rng *rand.Rand, mean, sd, upper float64) float64 {
	for {
		s := math.Abs(rng.NormFloat64()*sd + mean)
		if !scfRejected(s, upper) {
			return s
		}
	}
}

func scfRejected(s, upper float64) bool {
	return s <= 0 && s >= upper
}
