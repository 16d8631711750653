//go:build unit

package engine_test

import (
	"testing"
	"time"

	"smartqueue/internal/engine"
	"smartqueue/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEstimator(t *testing.T, alpha float64) *engine.WaitEstimator {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return engine.NewWaitEstimator(alpha, clk, nil)
}

func TestWaitEstimator_Estimate(t *testing.T) {
	t.Run("falls back to the configured default", func(t *testing.T) {
		estimator := newEstimator(t, 0.3)
		serviceID := uuid.New()

		assert.Equal(t, 15, estimator.Estimate(serviceID, 1, 15))
		assert.Equal(t, 45, estimator.Estimate(serviceID, 3, 15))
	})

	t.Run("uses observed average once a sample exists", func(t *testing.T) {
		estimator := newEstimator(t, 0.3)
		serviceID := uuid.New()

		estimator.RecordCompletion(serviceID, 10)

		assert.Equal(t, 10, estimator.Estimate(serviceID, 1, 15))
		assert.Equal(t, 30, estimator.Estimate(serviceID, 3, 15))
	})

	t.Run("rounds up to whole minutes", func(t *testing.T) {
		estimator := newEstimator(t, 0.3)
		serviceID := uuid.New()

		estimator.RecordCompletion(serviceID, 7.5)
		assert.Equal(t, 8, estimator.Estimate(serviceID, 1, 15))
		assert.Equal(t, 23, estimator.Estimate(serviceID, 3, 15))
	})

	t.Run("position below one is clamped", func(t *testing.T) {
		estimator := newEstimator(t, 0.3)
		assert.Equal(t, 15, estimator.Estimate(uuid.New(), 0, 15))
	})
}

func TestWaitEstimator_RecordCompletion(t *testing.T) {
	t.Run("ewma blends samples", func(t *testing.T) {
		estimator := newEstimator(t, 0.3)
		serviceID := uuid.New()

		estimator.RecordCompletion(serviceID, 10)
		estimator.RecordCompletion(serviceID, 20)

		sample, ok := estimator.Sample(serviceID)
		require.True(t, ok)
		// 0.3*20 + 0.7*10
		assert.InDelta(t, 13.0, sample.AvgMinutes, 1e-9)
		assert.Equal(t, 2, sample.SampleCount)
	})

	t.Run("non-positive durations are dropped", func(t *testing.T) {
		estimator := newEstimator(t, 0.3)
		serviceID := uuid.New()

		estimator.RecordCompletion(serviceID, 10)
		estimator.RecordCompletion(serviceID, 0)
		estimator.RecordCompletion(serviceID, -5)

		sample, ok := estimator.Sample(serviceID)
		require.True(t, ok)
		assert.InDelta(t, 10.0, sample.AvgMinutes, 1e-9)
		assert.Equal(t, 1, sample.SampleCount)
	})

	t.Run("services do not share averages", func(t *testing.T) {
		estimator := newEstimator(t, 0.3)
		fast, slow := uuid.New(), uuid.New()

		estimator.RecordCompletion(fast, 5)
		estimator.RecordCompletion(slow, 60)

		assert.Equal(t, 5, estimator.Estimate(fast, 1, 15))
		assert.Equal(t, 60, estimator.Estimate(slow, 1, 15))
	})
}

func TestWaitEstimator_Seed(t *testing.T) {
	estimator := newEstimator(t, 0.3)
	serviceID := uuid.New()

	estimator.Seed(engine.ThroughputSample{
		ServiceID:   serviceID,
		AvgMinutes:  12,
		SampleCount: 4,
	})
	assert.Equal(t, 12, estimator.Estimate(serviceID, 1, 30))

	// A live sample already present wins over a late seed
	estimator.RecordCompletion(serviceID, 12)
	estimator.Seed(engine.ThroughputSample{
		ServiceID:   serviceID,
		AvgMinutes:  99,
		SampleCount: 1,
	})
	assert.Equal(t, 12, estimator.Estimate(serviceID, 1, 30))

	// Invalid seeds are ignored
	other := uuid.New()
	estimator.Seed(engine.ThroughputSample{ServiceID: other, AvgMinutes: 0, SampleCount: 3})
	_, ok := estimator.Sample(other)
	assert.False(t, ok)
}
