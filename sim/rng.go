package sim

import (
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible instantiation run.
// Two runs with the same SimulationKey, scenario and map MUST submit
// bit-for-bit identical commands to the simulator.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemInstantiate is the base stream consumed by Scenario.Instantiate.
	// Uses master seed directly, so --seed N matches rand.NewSource(N).
	SubsystemInstantiate = "instantiate"

	// SubsystemPopulation drives procedural scenario generation.
	SubsystemPopulation = "population"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemInstantiate: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemInstantiate {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// === Forking ===

// ForkRNG derives an independent stream from base. The child's sequence is a
// pure function of base's current state. base advances by exactly one draw,
// no matter how much the child is used afterwards.
//
// Fork wherever the number of draws a decision makes could change with map
// edits (for example choosing among a road's lanes), so that the decision
// cannot shift randomness seen by everything after it.
func ForkRNG(base *rand.Rand) *rand.Rand {
	return rand.New(rand.NewSource(base.Int63()))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
