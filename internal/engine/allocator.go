package engine

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// QueueEntry is one confirmed appointment in a slot's queue. Order in the
// backing slice is admission order; position is index+1.
type QueueEntry struct {
	AppointmentID uuid.UUID
	UserID        uuid.UUID
}

// PositionChange reports an appointment whose queue position moved during a
// renumbering; the coordinator forwards these to persistence and broadcast.
type PositionChange struct {
	AppointmentID uuid.UUID
	UserID        uuid.UUID
	Position      int
}

// QueueAllocator keeps positions dense and FIFO-ordered per slot: the multiset
// of positions among confirmed appointments is always {1..n}. All mutation for
// one slot happens inside that slot's exclusive section.
type QueueAllocator struct {
	mu     sync.RWMutex
	queues map[uuid.UUID][]QueueEntry
}

func NewQueueAllocator() *QueueAllocator {
	return &QueueAllocator{
		queues: make(map[uuid.UUID][]QueueEntry),
	}
}

// Hydrate seeds a slot's queue from persisted confirmed appointments, in
// queue-position order. No-op if the slot is already tracked.
func (a *QueueAllocator) Hydrate(slotID uuid.UUID, entries []QueueEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.queues[slotID]; ok {
		return
	}
	a.queues[slotID] = slices.Clone(entries)
}

// Assign appends to the slot's queue and returns the 1-based position. Called
// only after the ledger accepted the reservation.
func (a *QueueAllocator) Assign(slotID, appointmentID, userID uuid.UUID) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.queues[slotID] = append(a.queues[slotID], QueueEntry{
		AppointmentID: appointmentID,
		UserID:        userID,
	})
	return len(a.queues[slotID])
}

// Remove deletes the appointment and closes the gap, returning one change per
// appointment that moved forward. O(n) in queue length, which is bounded by
// slot capacity.
func (a *QueueAllocator) Remove(slotID, appointmentID uuid.UUID) ([]PositionChange, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	queue, ok := a.queues[slotID]
	if !ok {
		return nil, ErrSlotUnknown
	}

	idx := slices.IndexFunc(queue, func(e QueueEntry) bool {
		return e.AppointmentID == appointmentID
	})
	if idx < 0 {
		return nil, errsMarkInvariant("remove of appointment missing from queue", slotID, len(queue), len(queue))
	}

	queue = slices.Delete(queue, idx, idx+1)
	a.queues[slotID] = queue

	changes := make([]PositionChange, 0, len(queue)-idx)
	for i := idx; i < len(queue); i++ {
		changes = append(changes, PositionChange{
			AppointmentID: queue[i].AppointmentID,
			UserID:        queue[i].UserID,
			Position:      i + 1,
		})
	}
	return changes, nil
}

func (a *QueueAllocator) PositionOf(slotID, appointmentID uuid.UUID) (int, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	queue, ok := a.queues[slotID]
	if !ok {
		return 0, false
	}
	idx := slices.IndexFunc(queue, func(e QueueEntry) bool {
		return e.AppointmentID == appointmentID
	})
	if idx < 0 {
		return 0, false
	}
	return idx + 1, true
}

func (a *QueueAllocator) Len(slotID uuid.UUID) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.queues[slotID])
}

// Snapshot and Restore support compensating a failed persistence write while
// the slot's section is still held.
func (a *QueueAllocator) Snapshot(slotID uuid.UUID) []QueueEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.queues[slotID])
}

func (a *QueueAllocator) Restore(slotID uuid.UUID, entries []QueueEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queues[slotID] = slices.Clone(entries)
}
