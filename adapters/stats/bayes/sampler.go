package bayes

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"dropweight/domain/dataset"
	"dropweight/domain/matrix"
	"dropweight/domain/weights"
	"dropweight/ports"
)

// Score clamp shared with the point estimator so exp never overflows.
const thetaClamp = 50.0

const (
	priorName      = "symmetric Dirichlet on softmax weights"
	likelihoodName = "multinomial per input row, self-transitions excluded"
)

// Estimator infers a posterior over drop weights by random-walk Metropolis
// sampling in the log-weight space. Chains are fully determined by the seed
// in the options, via the RNG port.
type Estimator struct {
	rng ports.RNGPort
}

// NewEstimator creates a Bayesian estimator
func NewEstimator(rng ports.RNGPort) *Estimator {
	return &Estimator{rng: rng}
}

// InferWeights runs the sampler over the given datasets and returns posterior
// samples, summary statistics and convergence diagnostics. Non-convergence is
// reported in the diagnostics, never as an error.
func (e *Estimator) InferWeights(ctx context.Context, datasets []dataset.Dataset, opts ports.BayesOptions) (*weights.BayesianResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m, err := matrix.BuildCountMatrix(datasets)
	if err != nil {
		return nil, err
	}

	if m.Size() == 1 {
		return degenerateResult(m.OutputIDs[0], opts), nil
	}

	r, err := e.rng.SeededStream(ctx, "bayes-chain", opts.Seed)
	if err != nil {
		return nil, err
	}

	samples, acceptanceRate := sampleChain(m, opts, r)

	summary, err := ComputeStatistics(samples, opts.CredibleMass)
	if err != nil {
		return nil, err
	}

	return &weights.BayesianResult{
		PosteriorSamples:       samples,
		SummaryStatistics:      summary,
		ConvergenceDiagnostics: diagnose(samples, acceptanceRate),
		ModelAssumptions:       assumptions(opts),
	}, nil
}

// sampleChain runs the Metropolis walk and returns retained samples keyed by
// output item, plus the proposal acceptance rate.
func sampleChain(m *matrix.CountMatrix, opts ports.BayesOptions, r *rand.Rand) (map[dataset.ItemID][]float64, float64) {
	n := m.Size()
	rowTotals := make([]float64, n)
	for k := 0; k < n; k++ {
		rowTotals[k] = m.RowTotal(k)
	}

	outputPos := make([]int, len(m.OutputIDs))
	for i, id := range m.OutputIDs {
		outputPos[i], _ = m.Index.IndexOf(id)
	}

	// Start the chain from a draw of the prior: normalized Gamma variates
	// are Dirichlet, and their logs are valid scores.
	gamma := distuv.Gamma{Alpha: opts.PriorConcentration, Beta: 1, Src: r}
	theta := make([]float64, n)
	for i := range theta {
		g := gamma.Rand()
		if g <= 0 {
			g = math.SmallestNonzeroFloat64
		}
		theta[i] = clamp(math.Log(g), -thetaClamp, thetaClamp)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: r}
	current := logPosterior(m, rowTotals, theta, opts.PriorConcentration)
	if math.IsNaN(current) || math.IsInf(current, 0) {
		// Numerical-safety reset: fall back to the uniform score vector.
		for i := range theta {
			theta[i] = 0
		}
		current = logPosterior(m, rowTotals, theta, opts.PriorConcentration)
	}

	retained := make(map[dataset.ItemID][]float64, len(m.OutputIDs))
	for _, id := range m.OutputIDs {
		retained[id] = nil
	}

	proposal := make([]float64, n)
	accepted := 0
	for step := 0; step < opts.ChainLength; step++ {
		for i := range proposal {
			proposal[i] = clamp(theta[i]+opts.StepSize*normal.Rand(), -thetaClamp, thetaClamp)
		}
		candidate := logPosterior(m, rowTotals, proposal, opts.PriorConcentration)

		if !math.IsNaN(candidate) && candidate-current > math.Log(r.Float64()+math.SmallestNonzeroFloat64) {
			copy(theta, proposal)
			current = candidate
			accepted++
		}

		if step >= opts.BurnIn && (step-opts.BurnIn)%opts.Thinning == 0 {
			w := outputWeights(theta, outputPos)
			for i, id := range m.OutputIDs {
				retained[id] = append(retained[id], w[i])
			}
		}
	}

	return retained, float64(accepted) / float64(opts.ChainLength)
}

// logPosterior evaluates the multinomial log-likelihood across all input rows
// plus the Dirichlet prior term, in log-sum-exp form.
func logPosterior(m *matrix.CountMatrix, rowTotals, theta []float64, alpha float64) float64 {
	n := len(theta)

	lp := 0.0
	for k := 0; k < n; k++ {
		if rowTotals[k] == 0 {
			continue
		}
		norm := logSumExpExcluding(theta, k)
		for j := 0; j < n; j++ {
			if j == k || m.Counts[k][j] == 0 {
				continue
			}
			lp += m.Counts[k][j] * (theta[j] - norm)
		}
	}

	// Dirichlet(alpha) density on softmax(theta) together with the softmax
	// Jacobian reduces to alpha * sum(log w_i).
	total := logSumExpExcluding(theta, -1)
	for i := 0; i < n; i++ {
		lp += alpha * (theta[i] - total)
	}
	return lp
}

// logSumExpExcluding computes log(sum of exp(theta[i]) for i != skip).
// Pass skip < 0 to include every index.
func logSumExpExcluding(theta []float64, skip int) float64 {
	maxT := math.Inf(-1)
	for i, t := range theta {
		if i == skip {
			continue
		}
		if t > maxT {
			maxT = t
		}
	}
	sum := 0.0
	for i, t := range theta {
		if i == skip {
			continue
		}
		sum += math.Exp(t - maxT)
	}
	return maxT + math.Log(sum)
}

// outputWeights converts scores to weights restricted to output items and
// renormalized over them.
func outputWeights(theta []float64, outputPos []int) []float64 {
	maxT := math.Inf(-1)
	for _, pos := range outputPos {
		if theta[pos] > maxT {
			maxT = theta[pos]
		}
	}
	out := make([]float64, len(outputPos))
	sum := 0.0
	for i, pos := range outputPos {
		out[i] = math.Exp(theta[pos] - maxT)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// degenerateResult is the single-item posterior: all mass at weight 1.0.
func degenerateResult(id dataset.ItemID, opts ports.BayesOptions) *weights.BayesianResult {
	length := retainedLength(opts)
	chain := make([]float64, length)
	for i := range chain {
		chain[i] = 1.0
	}
	return &weights.BayesianResult{
		PosteriorSamples: map[dataset.ItemID][]float64{id: chain},
		SummaryStatistics: weights.SummaryStatistics{
			id: {
				Median:           1.0,
				MAP:              1.0,
				CredibleInterval: weights.CredibleInterval{Lower: 1.0, Upper: 1.0},
			},
		},
		ConvergenceDiagnostics: weights.ConvergenceDiagnostics{
			Overall: weights.OverallDiagnostics{Converged: true, Reason: "degenerate single-item posterior"},
			Items: map[dataset.ItemID]weights.ItemDiagnostics{
				id: {SplitZ: 0, Stable: true},
			},
		},
		ModelAssumptions: assumptions(opts),
	}
}

func retainedLength(opts ports.BayesOptions) int {
	span := opts.ChainLength - opts.BurnIn
	return (span + opts.Thinning - 1) / opts.Thinning
}

func assumptions(opts ports.BayesOptions) weights.ModelAssumptions {
	return weights.ModelAssumptions{
		Prior:              priorName,
		PriorConcentration: opts.PriorConcentration,
		Likelihood:         likelihoodName,
		ChainLength:        opts.ChainLength,
		BurnIn:             opts.BurnIn,
		Thinning:           opts.Thinning,
		StepSize:           opts.StepSize,
		CredibleMass:       opts.CredibleMass,
		Seed:               opts.Seed,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
