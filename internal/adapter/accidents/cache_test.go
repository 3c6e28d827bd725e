package accidents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

// countingPredictor scores a vector by its hour and records what it was asked.
type countingPredictor struct {
	calls  int
	inputs [][]domain.FeatureVector
	err    error
}

func (m *countingPredictor) Predict(_ context.Context, features []domain.FeatureVector, threshold float64) (domain.PredictionResult, error) {
	m.calls++
	m.inputs = append(m.inputs, features)
	if m.err != nil {
		return domain.PredictionResult{}, m.err
	}
	preds := make([]domain.Prediction, len(features))
	for i, f := range features {
		p := float64(f.Hour) / 24
		preds[i] = domain.Prediction{Index: i, Probability: p, AccidentLikely: p >= threshold}
	}
	return domain.PredictionResult{Predictions: preds, Threshold: threshold}, nil
}

func TestCachedPredictor_CacheHit(t *testing.T) {
	inner := &countingPredictor{}
	cached, err := NewCachedPredictor(inner, 10, nil)
	require.NoError(t, err)

	features := []domain.FeatureVector{{Hour: 18}}
	r1, err := cached.Predict(context.Background(), features, 0.5)
	require.NoError(t, err)
	r2, err := cached.Predict(context.Background(), features, 0.5)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedPredictor_OnlyMissesForwarded(t *testing.T) {
	inner := &countingPredictor{}
	cached, err := NewCachedPredictor(inner, 10, nil)
	require.NoError(t, err)

	_, err = cached.Predict(context.Background(), []domain.FeatureVector{{Hour: 6}}, 0.5)
	require.NoError(t, err)

	res, err := cached.Predict(context.Background(), []domain.FeatureVector{{Hour: 20}, {Hour: 6}, {Hour: 12}}, 0.5)
	require.NoError(t, err)

	require.Len(t, inner.inputs, 2)
	assert.Equal(t, []domain.FeatureVector{{Hour: 20}, {Hour: 12}}, inner.inputs[1])

	require.Len(t, res.Predictions, 3)
	for i, p := range res.Predictions {
		assert.Equal(t, i, p.Index)
	}
	assert.InDelta(t, 0.25, res.Predictions[1].Probability, 1e-9)
	assert.InDelta(t, 0.5, res.Predictions[2].Probability, 1e-9)
	assert.Equal(t, 3, res.Summary.TotalPredictions)
	assert.Equal(t, 3, cached.Len())
}

func TestCachedPredictor_ThresholdIsPartOfKey(t *testing.T) {
	inner := &countingPredictor{}
	cached, err := NewCachedPredictor(inner, 10, nil)
	require.NoError(t, err)

	features := []domain.FeatureVector{{Hour: 12}}
	_, _ = cached.Predict(context.Background(), features, 0.3)
	_, _ = cached.Predict(context.Background(), features, 0.7)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedPredictor_Eviction(t *testing.T) {
	inner := &countingPredictor{}
	cached, err := NewCachedPredictor(inner, 2, nil)
	require.NoError(t, err)

	for _, h := range []int{1, 2, 3} {
		_, err := cached.Predict(context.Background(), []domain.FeatureVector{{Hour: h}}, 0.5)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cached.Len())

	// Hour 1 was evicted and must be fetched again.
	_, err = cached.Predict(context.Background(), []domain.FeatureVector{{Hour: 1}}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)
}

func TestCachedPredictor_ErrorNotCached(t *testing.T) {
	inner := &countingPredictor{err: errors.New("unavailable")}
	cached, err := NewCachedPredictor(inner, 10, nil)
	require.NoError(t, err)

	_, err = cached.Predict(context.Background(), []domain.FeatureVector{{Hour: 9}}, 0.5)
	require.Error(t, err)
	assert.Equal(t, 0, cached.Len())
}

func TestNewCachedPredictor_InvalidSize(t *testing.T) {
	_, err := NewCachedPredictor(&countingPredictor{}, 0, nil)
	require.Error(t, err)
}
