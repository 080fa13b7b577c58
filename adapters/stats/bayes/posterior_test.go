package bayes

import (
	"math"
	"testing"

	"dropweight/domain/core"
	"dropweight/domain/dataset"
)

func TestComputeStatistics_KnownChain(t *testing.T) {
	// 0.00, 0.01, ..., 1.00
	chain := make([]float64, 101)
	for i := range chain {
		chain[i] = float64(i) / 100.0
	}
	samples := map[dataset.ItemID][]float64{"x": chain}

	summary, err := ComputeStatistics(samples, 0.95)
	if err != nil {
		t.Fatalf("ComputeStatistics failed: %v", err)
	}

	s := summary["x"]
	if math.Abs(s.Median-0.5) > 1e-9 {
		t.Errorf("median = %f, want 0.5", s.Median)
	}
	if s.CredibleInterval.Lower > 0.05 || s.CredibleInterval.Upper < 0.95 {
		t.Errorf("95%% interval [%f, %f] too narrow for uniform chain", s.CredibleInterval.Lower, s.CredibleInterval.Upper)
	}
	if s.CredibleInterval.Lower < 0 || s.CredibleInterval.Upper > 1 {
		t.Errorf("interval [%f, %f] exceeds sample range", s.CredibleInterval.Lower, s.CredibleInterval.Upper)
	}
}

func TestComputeStatistics_MAPTracksDensity(t *testing.T) {
	// Mass piled near 0.8 with a thin uniform tail.
	var chain []float64
	for i := 0; i < 400; i++ {
		chain = append(chain, 0.8+0.01*float64(i%5))
	}
	for i := 0; i < 40; i++ {
		chain = append(chain, float64(i)/40.0)
	}
	samples := map[dataset.ItemID][]float64{"x": chain}

	summary, err := ComputeStatistics(samples, 0.95)
	if err != nil {
		t.Fatalf("ComputeStatistics failed: %v", err)
	}

	if s := summary["x"]; math.Abs(s.MAP-0.82) > 0.1 {
		t.Errorf("MAP = %f, want near the density peak at ~0.82", s.MAP)
	}
}

func TestComputeStatistics_ConstantChain(t *testing.T) {
	samples := map[dataset.ItemID][]float64{"x": {0.25, 0.25, 0.25, 0.25}}

	summary, err := ComputeStatistics(samples, 0.95)
	if err != nil {
		t.Fatalf("ComputeStatistics failed: %v", err)
	}

	s := summary["x"]
	if s.Median != 0.25 || s.MAP != 0.25 {
		t.Errorf("constant chain: median=%f map=%f, want 0.25", s.Median, s.MAP)
	}
	if s.CredibleInterval.Lower != 0.25 || s.CredibleInterval.Upper != 0.25 {
		t.Errorf("constant chain interval should collapse, got [%f, %f]", s.CredibleInterval.Lower, s.CredibleInterval.Upper)
	}
}

func TestComputeStatistics_Invalid(t *testing.T) {
	if _, err := ComputeStatistics(nil, 0.95); !core.IsInvalidInputError(err) {
		t.Errorf("nil samples: expected InvalidInput, got %v", err)
	}
	if _, err := ComputeStatistics(map[dataset.ItemID][]float64{"x": {}}, 0.95); !core.IsInvalidInputError(err) {
		t.Errorf("empty chain: expected InvalidInput, got %v", err)
	}
	if _, err := ComputeStatistics(map[dataset.ItemID][]float64{"x": {0.5}}, 1.2); !core.IsInvalidOptionsError(err) {
		t.Errorf("bad credible mass: expected InvalidOptions, got %v", err)
	}
}
