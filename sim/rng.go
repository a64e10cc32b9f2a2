package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the master seed of a nucleation run. Site positions,
// stress concentration factors, every KMC selection and every slip-system
// tie-break follow from it, so rerunning a key against the same Config and
// loading history replays the same nucleation events on the same steps.
type SimulationKey int64

// NewSimulationKey wraps a run seed.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemSampling feeds site placement and SCF draws at engine
	// construction, then the slip-system shuffle on each insertion. It is
	// seeded with the master seed itself.
	SubsystemSampling = "sampling"

	// SubsystemKMC feeds the single uniform consumed by every Engine.Step.
	SubsystemKMC = "kmc"
)

// PartitionedRNG splits one SimulationKey into independent streams, one per
// consumer. The KMC stream never shares state with site sampling, so the
// n-th step draws the same uniform whatever the site count or the number of
// loops inserted before it.
//
// The sampling stream is seeded with the key; any other stream with the key
// XOR the FNV-1a hash of its name. An Engine owns its PartitionedRNG and
// steps it from one goroutine.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates the stream set for key. Streams are seeded on
// first use.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, seeding it on first request.
// Later calls return the same *rand.Rand, so the engine's sampler and KMC
// selector keep advancing one sequence each across the whole run.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	rng, ok := p.streams[name]
	if !ok {
		rng = rand.New(rand.NewSource(p.streamSeed(name)))
		p.streams[name] = rng
	}
	return rng
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func (p *PartitionedRNG) streamSeed(name string) int64 {
	if name == SubsystemSampling {
		return int64(p.key)
	}
	return int64(p.key) ^ fnv1a64(name)
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
