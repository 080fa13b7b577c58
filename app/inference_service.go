package app

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"

	"golang.org/x/sync/errgroup"

	"dropweight/domain/core"
	"dropweight/domain/dataset"
	"dropweight/domain/weights"
	"dropweight/ports"
)

// InferenceService orchestrates weight inference: validation, estimator
// dispatch, per-input partitioning and result caching. The estimators stay
// pure; all caching and partitioning policy lives here.
type InferenceService struct {
	mle   ports.MLEEstimatorPort
	bayes ports.BayesianEstimatorPort
	cache ports.WeightCache
}

// InferenceRequest carries one inference invocation
type InferenceRequest struct {
	RunID    core.RunID
	Category string
	Datasets []dataset.Dataset
	MLE      ports.MLEOptions
	Bayes    ports.BayesOptions
}

// NewInferenceService creates an inference service. The cache may be nil, in
// which case every call recomputes.
func NewInferenceService(mle ports.MLEEstimatorPort, bayes ports.BayesianEstimatorPort, cache ports.WeightCache) *InferenceService {
	return &InferenceService{mle: mle, bayes: bayes, cache: cache}
}

// EstimateMLE returns point weights for the request's dataset collection,
// consulting the cache first.
func (s *InferenceService) EstimateMLE(ctx context.Context, req InferenceRequest) (weights.MLEResult, error) {
	key := s.cacheKey(req, ports.MethodMLE)

	var cached weights.MLEResult
	if hit, err := s.cacheLookup(ctx, key, &cached); err != nil {
		return nil, err
	} else if hit {
		return cached, nil
	}

	result, err := s.mle.EstimateItemWeights(ctx, req.Datasets, req.MLE)
	if err != nil {
		return nil, err
	}
	if err := s.cacheStore(ctx, key, result); err != nil {
		return nil, err
	}
	return result, nil
}

// InferBayesian returns the posterior for the request's dataset collection,
// consulting the cache first.
func (s *InferenceService) InferBayesian(ctx context.Context, req InferenceRequest) (*weights.BayesianResult, error) {
	key := s.cacheKey(req, ports.MethodBayesian)

	var cached weights.BayesianResult
	if hit, err := s.cacheLookup(ctx, key, &cached); err != nil {
		return nil, err
	} else if hit {
		return &cached, nil
	}

	result, err := s.bayes.InferWeights(ctx, req.Datasets, req.Bayes)
	if err != nil {
		return nil, err
	}
	if err := s.cacheStore(ctx, key, result); err != nil {
		return nil, err
	}
	return result, nil
}

// EstimateMLEPerInput partitions the datasets by input item and estimates
// each partition independently and concurrently.
func (s *InferenceService) EstimateMLEPerInput(ctx context.Context, req InferenceRequest) (weights.PerInputMLE, error) {
	key := s.cacheKey(req, ports.MethodMLEPerInput)

	var cached weights.PerInputMLE
	if hit, err := s.cacheLookup(ctx, key, &cached); err != nil {
		return nil, err
	} else if hit {
		return cached, nil
	}

	partitions, order, err := PartitionByInput(req.Datasets)
	if err != nil {
		return nil, err
	}

	out := make(weights.PerInputMLE, len(order))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range order {
		part := partitions[id]
		inputID := id
		g.Go(func() error {
			result, err := s.mle.EstimateItemWeights(gctx, part, req.MLE)
			if err != nil {
				return fmt.Errorf("run %s input %s: %w", req.RunID, inputID, err)
			}
			mu.Lock()
			out[inputID] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.cacheStore(ctx, key, out); err != nil {
		return nil, err
	}
	return out, nil
}

// InferBayesianPerInput partitions the datasets by input item and samples
// each partition independently and concurrently. Each partition gets its own
// derived seed so chains never share a random stream.
func (s *InferenceService) InferBayesianPerInput(ctx context.Context, req InferenceRequest) (weights.PerInputBayesian, error) {
	key := s.cacheKey(req, ports.MethodBayesianPerInput)

	var cached weights.PerInputBayesian
	if hit, err := s.cacheLookup(ctx, key, &cached); err != nil {
		return nil, err
	} else if hit {
		return cached, nil
	}

	partitions, order, err := PartitionByInput(req.Datasets)
	if err != nil {
		return nil, err
	}

	out := make(weights.PerInputBayesian, len(order))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range order {
		part := partitions[id]
		inputID := id
		g.Go(func() error {
			opts := req.Bayes
			opts.Seed = deriveSeed(req.Bayes.Seed, string(inputID))
			result, err := s.bayes.InferWeights(gctx, part, opts)
			if err != nil {
				return fmt.Errorf("run %s input %s: %w", req.RunID, inputID, err)
			}
			mu.Lock()
			out[inputID] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.cacheStore(ctx, key, out); err != nil {
		return nil, err
	}
	return out, nil
}

// PartitionByInput groups datasets by their associated input item. A dataset
// listing M input items joins each of the M partitions with its input list
// narrowed to that single item, so within a partition every count is credited
// fully to the partition's input. Datasets without input items carry no input
// association and are excluded. Partitions are returned with a deterministic
// first-seen order.
func PartitionByInput(datasets []dataset.Dataset) (map[dataset.ItemID][]dataset.Dataset, []dataset.ItemID, error) {
	if err := dataset.ValidateAll(datasets); err != nil {
		return nil, nil, err
	}

	partitions := make(map[dataset.ItemID][]dataset.Dataset)
	var order []dataset.ItemID
	for _, d := range datasets {
		for _, in := range d.InputItems {
			narrowed := d
			narrowed.InputItems = []dataset.InputItem{{ID: in.ID}}
			if _, seen := partitions[in.ID]; !seen {
				order = append(order, in.ID)
			}
			partitions[in.ID] = append(partitions[in.ID], narrowed)
		}
	}

	if len(order) == 0 {
		return nil, nil, core.NewInvalidInputError("no dataset declares input items; per-input estimation needs at least one")
	}
	return partitions, order, nil
}

func (s *InferenceService) cacheKey(req InferenceRequest, method string) ports.WeightCacheKey {
	return ports.WeightCacheKey{
		Category:    req.Category,
		Fingerprint: dataset.Fingerprint(req.Datasets),
		Method:      method,
	}
}

// cacheLookup fills target from the cache if present. A nil cache never hits.
func (s *InferenceService) cacheLookup(ctx context.Context, key ports.WeightCacheKey, target interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrCacheUnavailable, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		// A corrupt entry is treated as a miss; the recompute will replace it.
		return false, nil
	}
	return true, nil
}

func (s *InferenceService) cacheStore(ctx context.Context, key ports.WeightCacheKey, result interface{}) error {
	if s.cache == nil {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result for caching: %w", err)
	}
	if err := s.cache.Put(ctx, key, payload); err != nil {
		return fmt.Errorf("%w: %v", core.ErrCacheUnavailable, err)
	}
	return nil
}

// deriveSeed mixes a partition key into the base seed
func deriveSeed(base int64, partitionKey string) int64 {
	h := fnv.New64a()
	h.Write([]byte(partitionKey))
	return base ^ int64(h.Sum64())
}
