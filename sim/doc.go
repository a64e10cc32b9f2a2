// Package sim provides the stochastic surface-nucleation engine for
// dislocation-dynamics simulations of cylindrical FCC specimens.
//
// # Reading Guide
//
// The per-step pipeline runs in this order:
//   - site.go: candidate sites on the free surface and an optional grain boundary
//   - probability.go: rate law and cumulative distribution over sites
//   - kmc.go: single-draw Kinetic Monte Carlo site selection
//   - slip.go: FCC slip systems, crystal orientation, max-RSS resolution
//   - loop.go: loop geometry, plastic bookkeeping, network insertion
//
// engine.go wires them together; state.go holds the applied load and the
// plastic accumulators the surrounding simulation reads back. config.go
// defines the engine configuration and bundle.go its YAML overrides.
//
// # Architecture
//
// The dislocation network is an external collaborator reached through the
// Network interface (allocate node, clear arms, insert arm). An in-memory
// implementation lives in sim/network/. Nucleation records are collected by
// sim/trace/, which has no dependency on this package.
//
// # Randomness
//
// PartitionedRNG hands out two named streams: "sampling" for site placement,
// stress concentration factors and the slip-system tie-break, and "kmc",
// advanced exactly once per step. Both are derived from one SimulationKey,
// so a run is reproducible from its seed.
package sim
