package mle

import (
	"context"
	"math"

	"dropweight/domain/dataset"
	"dropweight/domain/matrix"
	"dropweight/domain/weights"
	"dropweight/ports"
)

// Numeric overflow guards. These bounds are part of the optimizer contract:
// gradients are clamped before each update and scores are clamped so exp
// never overflows.
const (
	gradClamp  = 100.0
	thetaClamp = 50.0
)

// Estimator is the maximum-likelihood point estimator. It optimizes a
// softmax-parameterized multinomial log-likelihood by batch gradient ascent.
type Estimator struct{}

// NewEstimator creates an MLE estimator
func NewEstimator() *Estimator {
	return &Estimator{}
}

// EstimateItemWeights composes the count matrix builder and the optimizer,
// returning weights keyed by output item id. Weights are renormalized over
// the output items: items that only appear as inputs carry no output
// evidence and are excluded from the reported map.
func (e *Estimator) EstimateItemWeights(ctx context.Context, datasets []dataset.Dataset, opts ports.MLEOptions) (weights.MLEResult, error) {
	m, err := matrix.BuildCountMatrix(datasets)
	if err != nil {
		return nil, err
	}
	w, err := EstimateWeightsFromCounts(m, opts)
	if err != nil {
		return nil, err
	}
	return restrictToOutputs(m, w), nil
}

// EstimateWeightsFromCounts runs the optimizer over a prepared count matrix
// and returns a full-length weight vector: non-negative, summing to 1.
//
// Latent scores theta (init 0, a uniform starting point) define unnormalized
// weights exp(theta[i]). For each input row k the conditional probability of
// output m is exp(theta[m]) / sum over i != k of exp(theta[i]); the row's own
// index never appears in its denominator or its total.
func EstimateWeightsFromCounts(m *matrix.CountMatrix, opts ports.MLEOptions) ([]float64, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	n := m.Size()
	// No contrast exists to estimate from.
	if n == 1 {
		return []float64{1.0}, nil
	}

	rowTotals := make([]float64, n)
	for k := 0; k < n; k++ {
		rowTotals[k] = m.RowTotal(k)
	}

	theta := make([]float64, n)
	expTheta := make([]float64, n)
	grad := make([]float64, n)

	for iter := 0; iter < opts.Iterations; iter++ {
		sumExp := 0.0
		for i := 0; i < n; i++ {
			expTheta[i] = math.Exp(theta[i])
			sumExp += expTheta[i]
		}

		for i := range grad {
			grad[i] = 0
		}

		unstable := false
		for k := 0; k < n && !unstable; k++ {
			if rowTotals[k] == 0 {
				continue
			}
			denom := sumExp - expTheta[k]
			if denom == 0 || math.IsInf(denom, 0) || math.IsNaN(denom) {
				unstable = true
				break
			}
			for j := 0; j < n; j++ {
				if j == k {
					continue
				}
				grad[j] += m.Counts[k][j] - rowTotals[k]*expTheta[j]/denom
			}
		}

		// Numerical-safety reset, not a fatal error: fall back to the
		// uniform starting point and keep iterating.
		if unstable {
			for i := range theta {
				theta[i] = 0
			}
			continue
		}

		gradNorm := 0.0
		for i := 0; i < n; i++ {
			gradNorm += grad[i] * grad[i]
			step := clamp(grad[i], -gradClamp, gradClamp)
			theta[i] = clamp(theta[i]+opts.LearningRate*step, -thetaClamp, thetaClamp)
		}

		if opts.ConvergenceThreshold > 0 && math.Sqrt(gradNorm) < opts.ConvergenceThreshold {
			break
		}
	}

	return Softmax(theta), nil
}

// Softmax converts latent scores to a normalized weight vector. Non-negative
// and summing to 1 by construction.
func Softmax(theta []float64) []float64 {
	maxTheta := theta[0]
	for _, t := range theta[1:] {
		if t > maxTheta {
			maxTheta = t
		}
	}
	sum := 0.0
	out := make([]float64, len(theta))
	for i, t := range theta {
		out[i] = math.Exp(t - maxTheta)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// restrictToOutputs keeps only output-item weights and renormalizes. Because
// the weights are a softmax, this restriction equals the softmax over the
// output scores alone.
func restrictToOutputs(m *matrix.CountMatrix, w []float64) weights.MLEResult {
	total := 0.0
	for _, id := range m.OutputIDs {
		pos, _ := m.Index.IndexOf(id)
		total += w[pos]
	}
	result := make(weights.MLEResult, len(m.OutputIDs))
	for _, id := range m.OutputIDs {
		pos, _ := m.Index.IndexOf(id)
		if total > 0 {
			result[id] = w[pos] / total
		} else {
			result[id] = 1.0 / float64(len(m.OutputIDs))
		}
	}
	return result
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
