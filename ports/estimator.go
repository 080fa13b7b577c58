package ports

import (
	"context"

	"dropweight/domain/core"
	"dropweight/domain/dataset"
	"dropweight/domain/weights"
)

// MLEOptions configures the gradient-ascent point estimator
type MLEOptions struct {
	LearningRate float64 `json:"learning_rate"`
	Iterations   int     `json:"iterations"`
	// ConvergenceThreshold stops iteration early once the Euclidean norm of
	// the gradient falls below it. Zero disables early stopping.
	ConvergenceThreshold float64 `json:"convergence_threshold,omitempty"`
}

// DefaultMLEOptions returns the standard optimizer configuration
func DefaultMLEOptions() MLEOptions {
	return MLEOptions{
		LearningRate: 0.001,
		Iterations:   6000,
	}
}

// Validate rejects configurations the optimizer cannot run with
func (o MLEOptions) Validate() error {
	if o.LearningRate <= 0 {
		return core.NewInvalidOptionsError("learning rate", "must be positive")
	}
	if o.Iterations <= 0 {
		return core.NewInvalidOptionsError("iterations", "must be a positive integer")
	}
	if o.ConvergenceThreshold < 0 {
		return core.NewInvalidOptionsError("convergence threshold", "must not be negative")
	}
	return nil
}

// BayesOptions configures the posterior sampler
type BayesOptions struct {
	ChainLength        int     `json:"chain_length"`
	BurnIn             int     `json:"burn_in"`
	Thinning           int     `json:"thinning"`
	StepSize           float64 `json:"step_size"`
	PriorConcentration float64 `json:"prior_concentration"`
	CredibleMass       float64 `json:"credible_mass"`
	Seed               int64   `json:"seed"`
}

// DefaultBayesOptions returns the standard sampler configuration
func DefaultBayesOptions() BayesOptions {
	return BayesOptions{
		ChainLength:        10000,
		BurnIn:             2000,
		Thinning:           5,
		StepSize:           0.05,
		PriorConcentration: 1.0,
		CredibleMass:       0.95,
	}
}

// Validate rejects configurations the sampler cannot run with
func (o BayesOptions) Validate() error {
	if o.ChainLength <= 0 {
		return core.NewInvalidOptionsError("chain length", "must be a positive integer")
	}
	if o.BurnIn < 0 || o.BurnIn >= o.ChainLength {
		return core.NewInvalidOptionsError("burn-in", "must be non-negative and below chain length")
	}
	if o.Thinning <= 0 {
		return core.NewInvalidOptionsError("thinning", "must be a positive integer")
	}
	if o.StepSize <= 0 {
		return core.NewInvalidOptionsError("step size", "must be positive")
	}
	if o.PriorConcentration <= 0 {
		return core.NewInvalidOptionsError("prior concentration", "must be positive")
	}
	if o.CredibleMass <= 0 || o.CredibleMass >= 1 {
		return core.NewInvalidOptionsError("credible mass", "must be in (0, 1)")
	}
	return nil
}

// MLEEstimatorPort produces point weight estimates from datasets
type MLEEstimatorPort interface {
	EstimateItemWeights(ctx context.Context, datasets []dataset.Dataset, opts MLEOptions) (weights.MLEResult, error)
}

// BayesianEstimatorPort produces posterior weight distributions from datasets
type BayesianEstimatorPort interface {
	InferWeights(ctx context.Context, datasets []dataset.Dataset, opts BayesOptions) (*weights.BayesianResult, error)
}
