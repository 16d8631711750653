//go:build unit

package engine_test

import (
	"testing"

	"smartqueue/internal/engine"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueAllocator_Assign(t *testing.T) {
	allocator := engine.NewQueueAllocator()
	slotID := uuid.New()

	first := allocator.Assign(slotID, uuid.New(), uuid.New())
	second := allocator.Assign(slotID, uuid.New(), uuid.New())
	third := allocator.Assign(slotID, uuid.New(), uuid.New())

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 3, third)
	assert.Equal(t, 3, allocator.Len(slotID))
}

func TestQueueAllocator_Remove(t *testing.T) {
	t.Run("removing the head renumbers everyone behind", func(t *testing.T) {
		allocator := engine.NewQueueAllocator()
		slotID := uuid.New()

		a1, a2, a3 := uuid.New(), uuid.New(), uuid.New()
		u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
		allocator.Assign(slotID, a1, u1)
		allocator.Assign(slotID, a2, u2)
		allocator.Assign(slotID, a3, u3)

		changes, err := allocator.Remove(slotID, a1)
		require.NoError(t, err)

		require.Len(t, changes, 2)
		assert.Equal(t, engine.PositionChange{AppointmentID: a2, UserID: u2, Position: 1}, changes[0])
		assert.Equal(t, engine.PositionChange{AppointmentID: a3, UserID: u3, Position: 2}, changes[1])

		pos, ok := allocator.PositionOf(slotID, a2)
		require.True(t, ok)
		assert.Equal(t, 1, pos)
	})

	t.Run("removing the tail moves nobody", func(t *testing.T) {
		allocator := engine.NewQueueAllocator()
		slotID := uuid.New()

		a1, a2 := uuid.New(), uuid.New()
		allocator.Assign(slotID, a1, uuid.New())
		allocator.Assign(slotID, a2, uuid.New())

		changes, err := allocator.Remove(slotID, a2)
		require.NoError(t, err)
		assert.Empty(t, changes)
		assert.Equal(t, 1, allocator.Len(slotID))
	})

	t.Run("positions stay dense after interleaved removals", func(t *testing.T) {
		allocator := engine.NewQueueAllocator()
		slotID := uuid.New()

		ids := make([]uuid.UUID, 5)
		for i := range ids {
			ids[i] = uuid.New()
			allocator.Assign(slotID, ids[i], uuid.New())
		}

		_, err := allocator.Remove(slotID, ids[1])
		require.NoError(t, err)
		_, err = allocator.Remove(slotID, ids[3])
		require.NoError(t, err)

		// Remaining: ids[0], ids[2], ids[4] at positions 1..3
		for want, id := range map[int]uuid.UUID{1: ids[0], 2: ids[2], 3: ids[4]} {
			pos, ok := allocator.PositionOf(slotID, id)
			require.True(t, ok)
			assert.Equal(t, want, pos)
		}
	})

	t.Run("unknown slot", func(t *testing.T) {
		allocator := engine.NewQueueAllocator()
		_, err := allocator.Remove(uuid.New(), uuid.New())
		assert.ErrorIs(t, err, engine.ErrSlotUnknown)
	})

	t.Run("appointment missing from queue is an invariant violation", func(t *testing.T) {
		allocator := engine.NewQueueAllocator()
		slotID := uuid.New()
		allocator.Assign(slotID, uuid.New(), uuid.New())

		_, err := allocator.Remove(slotID, uuid.New())
		assert.ErrorIs(t, err, engine.ErrInvariantViolation)
	})
}

func TestQueueAllocator_Hydrate(t *testing.T) {
	allocator := engine.NewQueueAllocator()
	slotID := uuid.New()

	a1, a2 := uuid.New(), uuid.New()
	allocator.Hydrate(slotID, []engine.QueueEntry{
		{AppointmentID: a1, UserID: uuid.New()},
		{AppointmentID: a2, UserID: uuid.New()},
	})

	pos, ok := allocator.PositionOf(slotID, a2)
	require.True(t, ok)
	assert.Equal(t, 2, pos)

	// Already tracked: second hydrate is a no-op
	allocator.Hydrate(slotID, nil)
	assert.Equal(t, 2, allocator.Len(slotID))
}

func TestQueueAllocator_SnapshotRestore(t *testing.T) {
	allocator := engine.NewQueueAllocator()
	slotID := uuid.New()

	a1, a2 := uuid.New(), uuid.New()
	allocator.Assign(slotID, a1, uuid.New())
	allocator.Assign(slotID, a2, uuid.New())

	snapshot := allocator.Snapshot(slotID)

	_, err := allocator.Remove(slotID, a1)
	require.NoError(t, err)
	assert.Equal(t, 1, allocator.Len(slotID))

	allocator.Restore(slotID, snapshot)
	assert.Equal(t, 2, allocator.Len(slotID))

	pos, ok := allocator.PositionOf(slotID, a1)
	require.True(t, ok)
	assert.Equal(t, 1, pos)
}
