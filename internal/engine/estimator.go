package engine

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"smartqueue/internal/pkg/clock"

	"github.com/google/uuid"
)

// DefaultEstimatorAlpha is the EWMA weight given to each new completion
// sample: responsive to trend shifts without chasing single outliers.
const DefaultEstimatorAlpha = 0.3

// ThroughputSample is the observed minutes-per-booking for one service.
type ThroughputSample struct {
	ServiceID   uuid.UUID
	AvgMinutes  float64
	SampleCount int
	LastUpdated time.Time
}

// WaitEstimator derives per-service average service duration from completion
// observations. Until the first real sample arrives, estimates fall back to
// the service's configured default duration.
type WaitEstimator struct {
	mu      sync.RWMutex
	alpha   float64
	samples map[uuid.UUID]*ThroughputSample
	clock   clock.Clock
	logger  *slog.Logger
}

func NewWaitEstimator(alpha float64, clk clock.Clock, logger *slog.Logger) *WaitEstimator {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultEstimatorAlpha
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WaitEstimator{
		alpha:   alpha,
		samples: make(map[uuid.UUID]*ThroughputSample),
		clock:   clk,
		logger:  logger,
	}
}

// Estimate returns position × averageServiceMinutes, rounded up to whole
// minutes. defaultMinutes is the service's configured duration, used until a
// completion sample exists.
func (e *WaitEstimator) Estimate(serviceID uuid.UUID, position, defaultMinutes int) int {
	if position < 1 {
		position = 1
	}

	avg := float64(defaultMinutes)
	e.mu.RLock()
	if s, ok := e.samples[serviceID]; ok && s.SampleCount > 0 {
		avg = s.AvgMinutes
	}
	e.mu.RUnlock()

	if avg < 0 {
		avg = 0
	}
	return int(math.Ceil(float64(position) * avg))
}

// RecordCompletion folds an observed duration into the service's EWMA.
// Non-positive durations are logged and dropped; they must never corrupt the
// running average.
func (e *WaitEstimator) RecordCompletion(serviceID uuid.UUID, durationMinutes float64) {
	if durationMinutes <= 0 {
		e.logger.Warn("discarding non-positive completion duration",
			"service_id", serviceID, "duration_minutes", durationMinutes)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.samples[serviceID]
	if !ok {
		e.samples[serviceID] = &ThroughputSample{
			ServiceID:   serviceID,
			AvgMinutes:  durationMinutes,
			SampleCount: 1,
			LastUpdated: e.clock.Now(),
		}
		return
	}

	s.AvgMinutes = e.alpha*durationMinutes + (1-e.alpha)*s.AvgMinutes
	s.SampleCount++
	s.LastUpdated = e.clock.Now()
}

// Seed restores a persisted sample, e.g. after restart. Live samples win over
// seeds that arrive late.
func (e *WaitEstimator) Seed(sample ThroughputSample) {
	if sample.SampleCount <= 0 || sample.AvgMinutes <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.samples[sample.ServiceID]; ok {
		return
	}
	copied := sample
	e.samples[sample.ServiceID] = &copied
}

func (e *WaitEstimator) Sample(serviceID uuid.UUID) (ThroughputSample, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.samples[serviceID]
	if !ok {
		return ThroughputSample{}, false
	}
	return *s, true
}
