package engine

import (
	"context"
	"sync"
	"time"

	"smartqueue/internal/pkg/errs"

	"github.com/google/uuid"
)

// SlotGuard provides one exclusive section per slot. Operations on different
// slots never contend; acquiring a held section gives up after the configured
// timeout and surfaces ErrBusy instead of deadlocking.
type SlotGuard struct {
	mu       sync.Mutex
	sections map[uuid.UUID]chan struct{}
	timeout  time.Duration
}

func NewSlotGuard(timeout time.Duration) *SlotGuard {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &SlotGuard{
		sections: make(map[uuid.UUID]chan struct{}),
		timeout:  timeout,
	}
}

// Acquire blocks until the slot's section is free, the timeout elapses, or
// ctx is done. The returned release func must be called exactly once.
func (g *SlotGuard) Acquire(ctx context.Context, slotID uuid.UUID) (func(), error) {
	section := g.section(slotID)

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case section <- struct{}{}:
		return func() { <-section }, nil
	case <-timer.C:
		return nil, ErrBusy
	case <-ctx.Done():
		return nil, errs.Mark(ctx.Err(), ErrBusy)
	}
}

func (g *SlotGuard) section(slotID uuid.UUID) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	section, ok := g.sections[slotID]
	if !ok {
		section = make(chan struct{}, 1)
		g.sections[slotID] = section
	}
	return section
}
