package httpapi

import (
	"dropweight/domain/dataset"
	"dropweight/ports"
)

// WeightRequest is the JSON body shared by all inference endpoints. Options
// are optional; absent fields fall back to the configured defaults.
type WeightRequest struct {
	Category string            `json:"category"`
	Datasets []dataset.Dataset `json:"datasets"`
	MLE      *MLEOptionsBody   `json:"mle_options,omitempty"`
	Bayes    *BayesOptionsBody `json:"bayes_options,omitempty"`
}

// MLEOptionsBody overrides individual optimizer settings
type MLEOptionsBody struct {
	LearningRate         *float64 `json:"learning_rate,omitempty"`
	Iterations           *int     `json:"iterations,omitempty"`
	ConvergenceThreshold *float64 `json:"convergence_threshold,omitempty"`
}

// BayesOptionsBody overrides individual sampler settings
type BayesOptionsBody struct {
	ChainLength        *int     `json:"chain_length,omitempty"`
	BurnIn             *int     `json:"burn_in,omitempty"`
	Thinning           *int     `json:"thinning,omitempty"`
	StepSize           *float64 `json:"step_size,omitempty"`
	PriorConcentration *float64 `json:"prior_concentration,omitempty"`
	CredibleMass       *float64 `json:"credible_mass,omitempty"`
	Seed               *int64   `json:"seed,omitempty"`
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

func (b *MLEOptionsBody) apply(opts ports.MLEOptions) ports.MLEOptions {
	if b == nil {
		return opts
	}
	if b.LearningRate != nil {
		opts.LearningRate = *b.LearningRate
	}
	if b.Iterations != nil {
		opts.Iterations = *b.Iterations
	}
	if b.ConvergenceThreshold != nil {
		opts.ConvergenceThreshold = *b.ConvergenceThreshold
	}
	return opts
}

func (b *BayesOptionsBody) apply(opts ports.BayesOptions) ports.BayesOptions {
	if b == nil {
		return opts
	}
	if b.ChainLength != nil {
		opts.ChainLength = *b.ChainLength
	}
	if b.BurnIn != nil {
		opts.BurnIn = *b.BurnIn
	}
	if b.Thinning != nil {
		opts.Thinning = *b.Thinning
	}
	if b.StepSize != nil {
		opts.StepSize = *b.StepSize
	}
	if b.PriorConcentration != nil {
		opts.PriorConcentration = *b.PriorConcentration
	}
	if b.CredibleMass != nil {
		opts.CredibleMass = *b.CredibleMass
	}
	if b.Seed != nil {
		opts.Seed = *b.Seed
	}
	return opts
}
