package rng

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
)

// Deterministic implements the RNG port with streams derived from a name and
// a seed, so the same (name, seed) pair always replays the same sequence.
type Deterministic struct{}

// NewDeterministic creates the deterministic RNG adapter
func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (g *Deterministic) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if name == "" {
		return nil, fmt.Errorf("rng stream name cannot be empty")
	}
	return rand.New(rand.NewSource(derive(name, seed))), nil
}

// derive mixes the stream name into the seed so distinct names never share a
// sequence even under the same base seed.
func derive(name string, seed int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}
