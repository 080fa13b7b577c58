package bayes

import (
	"math"

	"dropweight/domain/dataset"
	"dropweight/domain/weights"
)

// Acceptance-rate window outside which a random-walk chain is suspect:
// too low means the walk is stuck, too high means it is barely moving.
const (
	minAcceptance = 0.10
	maxAcceptance = 0.80
)

const splitZThreshold = 1.96

// diagnose compares first- and second-half statistics of every item's
// retained chain and checks the acceptance rate. The result is advisory;
// an unconverged chain is still returned to the caller.
func diagnose(samples map[dataset.ItemID][]float64, acceptanceRate float64) weights.ConvergenceDiagnostics {
	items := make(map[dataset.ItemID]weights.ItemDiagnostics, len(samples))
	allStable := true
	for id, chain := range samples {
		d := splitDiagnostics(chain)
		items[id] = d
		if !d.Stable {
			allStable = false
		}
	}

	overall := weights.OverallDiagnostics{Converged: true}
	switch {
	case acceptanceRate < minAcceptance:
		overall = weights.OverallDiagnostics{Converged: false, Reason: "acceptance rate too low"}
	case acceptanceRate > maxAcceptance:
		overall = weights.OverallDiagnostics{Converged: false, Reason: "acceptance rate too high"}
	case !allStable:
		overall = weights.OverallDiagnostics{Converged: false, Reason: "sub-chain statistics disagree"}
	}

	return weights.ConvergenceDiagnostics{
		Overall:        overall,
		AcceptanceRate: acceptanceRate,
		Items:          items,
	}
}

// splitDiagnostics computes a z-like score between the two chain halves.
// A short chain carries too little evidence to flag; it passes by default.
func splitDiagnostics(chain []float64) weights.ItemDiagnostics {
	if len(chain) < 20 {
		return weights.ItemDiagnostics{Stable: true}
	}

	half := len(chain) / 2
	m1, v1 := meanVariance(chain[:half])
	m2, v2 := meanVariance(chain[half:])

	pooled := v1/float64(half) + v2/float64(len(chain)-half)
	if pooled == 0 {
		// Both halves constant: identical means are stable, anything else is not.
		return weights.ItemDiagnostics{SplitZ: 0, Stable: m1 == m2}
	}

	z := math.Abs(m1-m2) / math.Sqrt(pooled)
	return weights.ItemDiagnostics{SplitZ: z, Stable: z < splitZThreshold}
}

func meanVariance(xs []float64) (float64, float64) {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	return mean, variance
}
