package ports

import (
	"context"
	"fmt"

	"dropweight/domain/core"
)

// Inference methods used as cache key components
const (
	MethodMLE              = "mle"
	MethodBayesian         = "bayesian"
	MethodMLEPerInput      = "mle_per_input"
	MethodBayesianPerInput = "bayesian_per_input"
)

// WeightCacheKey identifies one computed result:
// (category, dataset-set fingerprint, method).
type WeightCacheKey struct {
	Category    string
	Fingerprint core.Hash
	Method      string
}

// String renders the key in its canonical storage form
func (k WeightCacheKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Category, k.Fingerprint, k.Method)
}

// WeightCache stores serialized inference results keyed by dataset-set
// fingerprint. The engine is agnostic to the storage medium and simply
// recomputes on a miss; at-most-once computation under concurrent callers is
// a caller concern.
type WeightCache interface {
	// Get returns the stored payload and whether the key was present
	Get(ctx context.Context, key WeightCacheKey) ([]byte, bool, error)

	// Put stores a payload, replacing any existing entry for the key
	Put(ctx context.Context, key WeightCacheKey, payload []byte) error
}
