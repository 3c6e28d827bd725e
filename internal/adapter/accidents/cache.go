package accidents

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
	"github.com/couchcryptid/accident-risk-service/internal/observability"
)

// cacheKey identifies one prediction. Feature vectors are plain ints, so the
// vector and threshold together are comparable.
type cacheKey struct {
	features  domain.FeatureVector
	threshold float64
}

// CachedPredictor wraps a Predictor with an in-memory LRU cache keyed by
// feature vector and threshold. Only cache misses reach the inner predictor.
type CachedPredictor struct {
	inner   domain.Predictor
	cache   *lru.Cache[cacheKey, domain.Prediction]
	metrics *observability.Metrics
}

// NewCachedPredictor creates a cache decorator around a predictor. metrics may be nil.
func NewCachedPredictor(inner domain.Predictor, maxEntries int, metrics *observability.Metrics) (*CachedPredictor, error) {
	cache, err := lru.New[cacheKey, domain.Prediction](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("prediction cache: %w", err)
	}
	return &CachedPredictor{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedPredictor) Predict(ctx context.Context, features []domain.FeatureVector, threshold float64) (domain.PredictionResult, error) {
	if threshold == 0 {
		threshold = domain.DefaultPredictionThreshold
	}

	preds := make([]domain.Prediction, len(features))
	var missIdx []int
	var missed []domain.FeatureVector
	for i, f := range features {
		if p, ok := c.cache.Get(cacheKey{f, threshold}); ok {
			p.Index = i
			preds[i] = p
			c.record("hit")
			continue
		}
		c.record("miss")
		missIdx = append(missIdx, i)
		missed = append(missed, f)
	}

	if len(missed) > 0 {
		res, err := c.inner.Predict(ctx, missed, threshold)
		if err != nil {
			return domain.PredictionResult{}, err
		}
		if len(res.Predictions) != len(missed) {
			return domain.PredictionResult{}, fmt.Errorf("%w: predict: got %d predictions for %d inputs",
				ErrAPI, len(res.Predictions), len(missed))
		}
		for j, p := range res.Predictions {
			k := j
			if p.Index >= 0 && p.Index < len(missed) {
				k = p.Index
			}
			c.cache.Add(cacheKey{missed[k], threshold}, p)
			p.Index = missIdx[k]
			preds[missIdx[k]] = p
		}
	}

	return domain.PredictionResult{
		Predictions: preds,
		Summary:     domain.SummarizePredictions(preds),
		Threshold:   threshold,
	}, nil
}

// Len reports the number of cached predictions.
func (c *CachedPredictor) Len() int {
	return c.cache.Len()
}

func (c *CachedPredictor) record(result string) {
	if c.metrics != nil {
		c.metrics.PredictionCache.WithLabelValues(result).Inc()
	}
}
