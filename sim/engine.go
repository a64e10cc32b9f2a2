// sim/engine.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nucsim/nucsim/sim/trace"
)

// StepResult reports what one call to Engine.Step did.
type StepResult struct {
	Step             int64
	Draw             float64
	TotalProbability float64 // aggregate probability before normalization
	FlaggedSite      int     // -1 when the draw selected no site
	Loops            []Loop  // empty on non-coordinating domains
}

// Engine runs the per-step nucleation pipeline: probabilities, KMC draw,
// loop insertion. It is single-goroutine and holds the site array for the
// lifetime of the run.
type Engine struct {
	cfg   Config
	State *State

	sites *SiteSet
	prob  *ProbabilityModel
	kmc   *KMCSelector
	loops *LoopMaterializer
	trace *trace.SimulationTrace
	step  int64
}

// NewEngine validates cfg, generates the nucleation sites from the sampling
// stream and wires the KMC stream. A capacity violation is returned wrapped
// around ErrSiteCapacityExceeded.
func NewEngine(cfg Config, st *State, net Network, rng *PartitionedRNG) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("engine state must not be nil")
	}
	if net == nil {
		return nil, fmt.Errorf("engine network must not be nil")
	}
	sampling := rng.ForSubsystem(SubsystemSampling)
	sites, err := GenerateSites(cfg, sampling)
	if err != nil {
		return nil, err
	}
	logrus.Infof("generated %d nucleation sites (%d surface, %d boundary)",
		sites.Len(), sites.SurfaceCount, sites.BoundaryCount())

	return &Engine{
		cfg:   cfg,
		State: st,
		sites: sites,
		prob:  NewProbabilityModel(cfg),
		kmc:   NewKMCSelector(rng.ForSubsystem(SubsystemKMC)),
		loops: NewLoopMaterializer(cfg, net, sampling),
	}, nil
}

// WithTrace attaches a trace recorder and returns the engine.
func (e *Engine) WithTrace(t *trace.SimulationTrace) *Engine {
	e.trace = t
	return e
}

// Sites returns the engine's site array. Callers must not mutate it
// while a step is running.
func (e *Engine) Sites() *SiteSet { return e.sites }

// Config returns the validated configuration.
func (e *Engine) Config() Config { return e.cfg }

// StepCount returns the number of completed steps.
func (e *Engine) StepCount() int64 { return e.step }

// IsCoordinator reports whether this domain inserts loops.
func (e *Engine) IsCoordinator() bool {
	return e.cfg.Domain.DomainID == e.cfg.Domain.CoordinatorDomain
}

// Step advances the pipeline by one timestep of length dt seconds.
// All probabilities are finalized before the single KMC draw.
func (e *Engine) Step(dt float64) StepResult {
	e.step++
	total := e.prob.Update(e.sites, e.State, dt)
	u, flagged := e.kmc.Draw(e.sites)

	result := StepResult{
		Step:             e.step,
		Draw:             u,
		TotalProbability: total,
		FlaggedSite:      flagged,
	}

	if e.IsCoordinator() {
		for i := range e.sites.Sites {
			site := &e.sites.Sites[i]
			if !site.Flagged {
				continue
			}
			loop := e.loops.Materialize(site, e.State)
			result.Loops = append(result.Loops, loop)
			e.recordNucleation(site, loop)
		}
	}

	e.recordStep(result)
	return result
}

func (e *Engine) recordNucleation(site *NucleationSite, loop Loop) {
	if e.trace == nil {
		return
	}
	e.trace.RecordNucleation(trace.NucleationRecord{
		Step:         e.step,
		SiteID:       site.ID,
		OnBoundary:   site.OnBoundary,
		Center:       vecArray(loop.Center),
		Burgers:      vecArray(loop.Burgers),
		Normal:       vecArray(loop.Normal),
		SlipSystem:   loop.SlipSystem,
		NumNodes:     len(loop.Nodes),
		SweptArea:    loop.SweptArea,
		EffectiveRSS: loop.EffectiveRSS,
	})
}

func (e *Engine) recordStep(result StepResult) {
	if e.trace == nil || e.trace.Config.Level != trace.TraceLevelSteps {
		return
	}
	snaps := make([]trace.SiteSnapshot, e.sites.Len())
	for i, s := range e.sites.Sites {
		snaps[i] = trace.SiteSnapshot{
			SiteID:      s.ID,
			SCF:         s.SCF,
			Probability: s.Probability,
			Cumulative:  s.Cumulative,
			Flagged:     s.Flagged,
			Count:       s.Count,
		}
	}
	e.trace.RecordStep(trace.StepRecord{
		Step:             result.Step,
		Draw:             result.Draw,
		TotalProbability: result.TotalProbability,
		FlaggedSite:      result.FlaggedSite,
		Sites:            snaps,
	})
}
