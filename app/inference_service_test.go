package app

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropweight/adapters/cache/memory"
	"dropweight/domain/core"
	"dropweight/domain/dataset"
	"dropweight/domain/weights"
	"dropweight/ports"
)

// fakeMLE returns fixed weights and counts invocations
type fakeMLE struct {
	calls  int64
	result weights.MLEResult
}

func (f *fakeMLE) EstimateItemWeights(ctx context.Context, datasets []dataset.Dataset, opts ports.MLEOptions) (weights.MLEResult, error) {
	atomic.AddInt64(&f.calls, 1)
	if err := dataset.ValidateAll(datasets); err != nil {
		return nil, err
	}
	return f.result, nil
}

// fakeBayes records the seeds it was invoked with
type fakeBayes struct {
	calls int64
	seeds chan int64
}

func (f *fakeBayes) InferWeights(ctx context.Context, datasets []dataset.Dataset, opts ports.BayesOptions) (*weights.BayesianResult, error) {
	atomic.AddInt64(&f.calls, 1)
	if err := dataset.ValidateAll(datasets); err != nil {
		return nil, err
	}
	if f.seeds != nil {
		f.seeds <- opts.Seed
	}
	return &weights.BayesianResult{
		PosteriorSamples: map[dataset.ItemID][]float64{"x": {1.0}},
	}, nil
}

func sampleDatasets() []dataset.Dataset {
	return []dataset.Dataset{
		{
			Name:       "d1",
			InputItems: []dataset.InputItem{{ID: "a"}},
			Items:      []dataset.OutputItem{{ID: "x", Count: 80}, {ID: "y", Count: 20}},
		},
		{
			Name:       "d2",
			InputItems: []dataset.InputItem{{ID: "a"}, {ID: "b"}},
			Items:      []dataset.OutputItem{{ID: "x", Count: 10}},
		},
	}
}

func TestEstimateMLE_CachesResult(t *testing.T) {
	mle := &fakeMLE{result: weights.MLEResult{"x": 0.8, "y": 0.2}}
	svc := NewInferenceService(mle, &fakeBayes{}, memory.NewCache())
	req := InferenceRequest{
		RunID:    core.NewRunID(),
		Category: "contracts",
		Datasets: sampleDatasets(),
		MLE:      ports.DefaultMLEOptions(),
	}

	first, err := svc.EstimateMLE(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.EstimateMLE(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, mle.calls, "second call should be served from cache")
}

func TestEstimateMLE_MethodsDoNotCollide(t *testing.T) {
	mle := &fakeMLE{result: weights.MLEResult{"x": 1.0}}
	bayes := &fakeBayes{}
	svc := NewInferenceService(mle, bayes, memory.NewCache())
	req := InferenceRequest{
		Category: "contracts",
		Datasets: sampleDatasets(),
		MLE:      ports.DefaultMLEOptions(),
		Bayes:    ports.DefaultBayesOptions(),
	}

	_, err := svc.EstimateMLE(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.InferBayesian(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 1, bayes.calls, "bayesian result must not be served from the MLE entry")
}

func TestEstimateMLE_NilCacheRecomputes(t *testing.T) {
	mle := &fakeMLE{result: weights.MLEResult{"x": 1.0}}
	svc := NewInferenceService(mle, &fakeBayes{}, nil)
	req := InferenceRequest{Category: "contracts", Datasets: sampleDatasets(), MLE: ports.DefaultMLEOptions()}

	_, err := svc.EstimateMLE(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.EstimateMLE(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 2, mle.calls)
}

func TestPartitionByInput(t *testing.T) {
	partitions, order, err := PartitionByInput(sampleDatasets())
	require.NoError(t, err)

	assert.Equal(t, []dataset.ItemID{"a", "b"}, order)
	require.Len(t, partitions["a"], 2, "input a appears in both datasets")
	require.Len(t, partitions["b"], 1)

	// Narrowed datasets credit their counts fully to the partition input.
	for _, part := range partitions {
		for _, d := range part {
			assert.Len(t, d.InputItems, 1)
		}
	}
	assert.Equal(t, dataset.ItemID("b"), partitions["b"][0].InputItems[0].ID)
}

func TestPartitionByInput_NoInputsAnywhere(t *testing.T) {
	datasets := []dataset.Dataset{
		{Name: "anon", Items: []dataset.OutputItem{{ID: "x", Count: 5}}},
	}
	_, _, err := PartitionByInput(datasets)
	assert.True(t, core.IsInvalidInputError(err), "per-input estimation without inputs should fail, got %v", err)
}

func TestInferBayesianPerInput_DerivesDistinctSeeds(t *testing.T) {
	bayes := &fakeBayes{seeds: make(chan int64, 8)}
	svc := NewInferenceService(&fakeMLE{result: weights.MLEResult{}}, bayes, nil)
	req := InferenceRequest{
		Category: "contracts",
		Datasets: sampleDatasets(),
		Bayes:    ports.DefaultBayesOptions(),
	}

	result, err := svc.InferBayesianPerInput(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result, 2)

	close(bayes.seeds)
	seen := map[int64]bool{}
	for seed := range bayes.seeds {
		seen[seed] = true
	}
	assert.Len(t, seen, 2, "each partition should sample with its own derived seed")
}

func TestEstimateMLEPerInput_IndependentPartitions(t *testing.T) {
	mle := &fakeMLE{result: weights.MLEResult{"x": 1.0}}
	svc := NewInferenceService(mle, &fakeBayes{}, nil)
	req := InferenceRequest{Category: "contracts", Datasets: sampleDatasets(), MLE: ports.DefaultMLEOptions()}

	result, err := svc.EstimateMLEPerInput(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.EqualValues(t, 2, mle.calls, "one estimation per partition")
}

func TestEstimateMLE_EmptyDatasets(t *testing.T) {
	svc := NewInferenceService(&fakeMLE{}, &fakeBayes{}, nil)
	req := InferenceRequest{Category: "contracts", MLE: ports.DefaultMLEOptions()}

	_, err := svc.EstimateMLE(context.Background(), req)
	assert.True(t, core.IsInvalidInputError(err), "expected InvalidInput, got %v", err)
}
