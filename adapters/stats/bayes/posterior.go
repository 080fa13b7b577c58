package bayes

import (
	"math"

	"github.com/montanaflynn/stats"

	"dropweight/domain/core"
	"dropweight/domain/dataset"
	"dropweight/domain/weights"
)

// ComputeStatistics turns raw posterior samples into per-item summary
// statistics: median, MAP (histogram mode) and the empirical credible
// interval. Standalone so cached raw chains can be re-summarized without
// re-running the sampler.
func ComputeStatistics(samples map[dataset.ItemID][]float64, credibleMass float64) (weights.SummaryStatistics, error) {
	if len(samples) == 0 {
		return nil, core.NewInvalidInputError("no posterior samples")
	}
	if credibleMass <= 0 || credibleMass >= 1 {
		return nil, core.NewInvalidOptionsError("credible mass", "must be in (0, 1)")
	}

	tail := (1 - credibleMass) / 2 * 100

	summary := make(weights.SummaryStatistics, len(samples))
	for id, chain := range samples {
		if len(chain) == 0 {
			return nil, core.NewInvalidInputError("empty posterior sample vector for item " + string(id))
		}

		data := stats.Float64Data(chain)
		median, err := stats.Median(data)
		if err != nil {
			return nil, err
		}
		lower, err := stats.Percentile(data, tail)
		if err != nil {
			return nil, err
		}
		upper, err := stats.Percentile(data, 100-tail)
		if err != nil {
			return nil, err
		}

		summary[id] = weights.ItemSummary{
			Median: median,
			MAP:    histogramMode(chain),
			CredibleInterval: weights.CredibleInterval{
				Lower: math.Min(lower, median),
				Upper: math.Max(upper, median),
			},
		}
	}
	return summary, nil
}

// histogramMode approximates the highest-density point of a sample vector by
// binning it and taking the center of the fullest bin.
func histogramMode(chain []float64) float64 {
	lo, hi := chain[0], chain[0]
	for _, v := range chain[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return lo
	}

	bins := int(math.Sqrt(float64(len(chain))))
	if bins < 10 {
		bins = 10
	}
	if bins > 60 {
		bins = 60
	}

	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range chain {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}

	best := 0
	for b, c := range counts {
		if c > counts[best] {
			best = b
		}
	}
	return lo + (float64(best)+0.5)*width
}
