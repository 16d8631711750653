package engine

import (
	"sync"

	"smartqueue/internal/domain/slot"

	"github.com/google/uuid"
)

// SlotLedger is the authoritative occupancy counter per slot. Mutations run
// only inside the slot's exclusive section (see SlotGuard); the internal lock
// just keeps the map safe for concurrent reads across slots.
type SlotLedger struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]*ledgerEntry
	threshold float64
}

type ledgerEntry struct {
	serviceID   uuid.UUID
	capacity    int
	bookedCount int
}

func NewSlotLedger(crowdedThreshold float64) *SlotLedger {
	if crowdedThreshold <= 0 || crowdedThreshold > 1 {
		crowdedThreshold = slot.DefaultCrowdedThreshold
	}
	return &SlotLedger{
		entries:   make(map[uuid.UUID]*ledgerEntry),
		threshold: crowdedThreshold,
	}
}

// Hydrate seeds a slot from persisted state. Re-hydrating an already tracked
// slot is a no-op so a racing reader cannot reset live counts.
func (l *SlotLedger) Hydrate(slotID, serviceID uuid.UUID, capacity, bookedCount int) error {
	if capacity <= 0 || bookedCount < 0 || bookedCount > capacity {
		return errsMarkInvariant("hydrate with inconsistent counts", slotID, bookedCount, capacity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[slotID]; ok {
		return nil
	}
	l.entries[slotID] = &ledgerEntry{
		serviceID:   serviceID,
		capacity:    capacity,
		bookedCount: bookedCount,
	}
	return nil
}

func (l *SlotLedger) Hydrated(slotID uuid.UUID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[slotID]
	return ok
}

// TryReserve claims one unit of capacity, failing with ErrSlotFull once
// bookedCount reaches capacity. Never increments past capacity.
func (l *SlotLedger) TryReserve(slotID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[slotID]
	if !ok {
		return ErrSlotUnknown
	}
	if entry.bookedCount >= entry.capacity {
		return ErrSlotFull
	}
	entry.bookedCount++
	return nil
}

// Release returns one unit of capacity. A release at zero means the caller's
// bookkeeping diverged from the ledger; that is reported, never absorbed.
func (l *SlotLedger) Release(slotID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[slotID]
	if !ok {
		return ErrSlotUnknown
	}
	if entry.bookedCount == 0 {
		return errsMarkInvariant("release on empty slot", slotID, 0, entry.capacity)
	}
	entry.bookedCount--
	return nil
}

func (l *SlotLedger) Status(slotID uuid.UUID) (slot.Status, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[slotID]
	if !ok {
		return "", false
	}
	return slot.DeriveStatus(entry.bookedCount, entry.capacity, l.threshold), true
}

// Occupancy returns (bookedCount, capacity) for a tracked slot.
func (l *SlotLedger) Occupancy(slotID uuid.UUID) (int, int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[slotID]
	if !ok {
		return 0, 0, false
	}
	return entry.bookedCount, entry.capacity, true
}

func (l *SlotLedger) ServiceID(slotID uuid.UUID) (uuid.UUID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[slotID]
	if !ok {
		return uuid.Nil, false
	}
	return entry.serviceID, true
}
