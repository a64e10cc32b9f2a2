package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	sim "github.com/nucsim/nucsim/sim"
	"github.com/nucsim/nucsim/sim/network"
	"github.com/nucsim/nucsim/sim/trace"
)

// burgersTolerance bounds the net Burgers vector per node after a run.
const burgersTolerance = 1e-9

// RunResult is the outcome of one seeded replica.
type RunResult struct {
	Seed     int64
	Sites    int
	Loops    int // closed rings in the network
	State    *sim.State
	Trace    *trace.SimulationTrace
	Summary  *trace.TraceSummary
	Duration time.Duration
}

// RunReplica builds an engine and network for rc, ramps the load for
// rc.Steps steps and checks that every inserted ring is closed and conserves
// Burgers vector. It stops early when ctx is cancelled.
func RunReplica(ctx context.Context, rc RunConfig) (*RunResult, error) {
	start := time.Now()
	cfg := rc.EngineConfig()
	st := rc.Driver.NewState()
	graph := network.NewGraph(cfg.Domain.DomainID)

	engine, err := sim.NewEngine(cfg, st, graph, sim.NewPartitionedRNG(sim.NewSimulationKey(rc.Seed)))
	if err != nil {
		return nil, fmt.Errorf("seed %d: %w", rc.Seed, err)
	}
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(rc.TraceLevel)})
	engine.WithTrace(tr)
	logrus.Infof("run %s: seed=%d steps=%d dt=%g mode=%s", tr.RunID, rc.Seed, rc.Steps, rc.TimeStep, cfg.Loading.Mode)

	for i := 0; i < rc.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("seed %d stopped at step %d: %w", rc.Seed, i, err)
		}
		engine.Step(rc.TimeStep)
		rc.Driver.Advance(st, rc.TimeStep)
	}

	if err := graph.CheckBurgersConservation(burgersTolerance); err != nil {
		return nil, fmt.Errorf("seed %d: %w", rc.Seed, err)
	}
	rings, err := graph.Loops()
	if err != nil {
		return nil, fmt.Errorf("seed %d: %w", rc.Seed, err)
	}

	logrus.Infof("run %s complete: %d nucleations in %d steps", tr.RunID, st.Accumulators.Nucleations, rc.Steps)
	return &RunResult{
		Seed:     rc.Seed,
		Sites:    engine.Sites().Len(),
		Loops:    len(rings),
		State:    st,
		Trace:    tr,
		Summary:  trace.Summarize(tr),
		Duration: time.Since(start),
	}, nil
}
