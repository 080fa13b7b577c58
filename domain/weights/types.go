package weights

import (
	"dropweight/domain/dataset"
)

// MLEResult maps output item ids to point weights. Weights are non-negative
// and sum to 1.0 within floating-point tolerance.
type MLEResult map[dataset.ItemID]float64

// CredibleInterval is an empirical posterior interval
type CredibleInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ItemSummary holds per-item posterior summary statistics
type ItemSummary struct {
	Median           float64          `json:"median"`
	MAP              float64          `json:"map"`
	CredibleInterval CredibleInterval `json:"credible_interval"`
}

// SummaryStatistics maps output item ids to posterior summaries
type SummaryStatistics map[dataset.ItemID]ItemSummary

// ItemDiagnostics compares sub-chain statistics for one item's chain
type ItemDiagnostics struct {
	SplitZ float64 `json:"split_z"`
	Stable bool    `json:"stable"`
}

// OverallDiagnostics is the chain-level convergence signal. Non-convergence
// is surfaced here, never as an error.
type OverallDiagnostics struct {
	Converged bool   `json:"converged"`
	Reason    string `json:"reason,omitempty"`
}

// ConvergenceDiagnostics reports chain reliability to callers
type ConvergenceDiagnostics struct {
	Overall        OverallDiagnostics                 `json:"overall"`
	AcceptanceRate float64                            `json:"acceptance_rate"`
	Items          map[dataset.ItemID]ItemDiagnostics `json:"items,omitempty"`
}

// ModelAssumptions echoes the prior/likelihood configuration a chain was run
// with, for reproducibility and display.
type ModelAssumptions struct {
	Prior              string  `json:"prior"`
	PriorConcentration float64 `json:"prior_concentration"`
	Likelihood         string  `json:"likelihood"`
	ChainLength        int     `json:"chain_length"`
	BurnIn             int     `json:"burn_in"`
	Thinning           int     `json:"thinning"`
	StepSize           float64 `json:"step_size"`
	CredibleMass       float64 `json:"credible_mass"`
	Seed               int64   `json:"seed"`
}

// BayesianResult is the full posterior output for one inference call. Every
// item's sample vector has the same length (the retained chain length).
type BayesianResult struct {
	PosteriorSamples       map[dataset.ItemID][]float64 `json:"posterior_samples"`
	SummaryStatistics      SummaryStatistics            `json:"summary_statistics"`
	ConvergenceDiagnostics ConvergenceDiagnostics       `json:"convergence_diagnostics"`
	ModelAssumptions       ModelAssumptions             `json:"model_assumptions"`
}

// PerInputMLE maps input item ids to independently estimated point weights
type PerInputMLE map[dataset.ItemID]MLEResult

// PerInputBayesian maps input item ids to independently inferred posteriors
type PerInputBayesian map[dataset.ItemID]*BayesianResult
