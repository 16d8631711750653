//go:build unit

package slot_test

import (
	"testing"

	"smartqueue/internal/domain/slot"
	"smartqueue/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlot(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewSlotBuilder().BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.Equal(t, 5, actual.Capacity())
		assert.Equal(t, 0, actual.BookedCount())
		assert.False(t, actual.IsFull())
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*builder.SlotBuilder)
			errIs  error
		}{
			{
				name:   "zero capacity",
				mutate: func(b *builder.SlotBuilder) { b.Capacity = 0 },
				errIs:  slot.ErrInvalidCapacity,
			},
			{
				name:   "negative booked count",
				mutate: func(b *builder.SlotBuilder) { b.BookedCount = -1 },
				errIs:  slot.ErrInvalidOccupancy,
			},
			{
				name:   "booked count above capacity",
				mutate: func(b *builder.SlotBuilder) { b.BookedCount = 6 },
				errIs:  slot.ErrInvalidOccupancy,
			},
			{
				name:   "window ends before it starts",
				mutate: func(b *builder.SlotBuilder) { b.EndTime = b.StartTime },
				errIs:  slot.ErrInvalidWindow,
			},
			{
				name:   "booked count equal to capacity",
				mutate: func(b *builder.SlotBuilder) { b.BookedCount = 5 },
			},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				b := builder.NewSlotBuilder()
				tc.mutate(b)
				actual, err := b.BuildDomain()
				if tc.errIs != nil {
					assert.ErrorIs(t, err, tc.errIs)
					assert.Nil(t, actual)
					return
				}
				require.NoError(t, err)
			})
		}
	})
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name      string
		booked    int
		capacity  int
		threshold float64
		want      slot.Status
	}{
		{"empty slot", 0, 5, 0.8, slot.StatusAvailable},
		{"below threshold", 3, 5, 0.8, slot.StatusAvailable},
		{"exactly at threshold", 4, 5, 0.8, slot.StatusCrowded},
		{"above threshold", 9, 10, 0.8, slot.StatusCrowded},
		{"at capacity", 5, 5, 0.8, slot.StatusFull},
		{"zero capacity is full", 0, 0, 0.8, slot.StatusFull},
		{"non-positive threshold falls back to default", 4, 5, 0, slot.StatusCrowded},
		{"capacity one empty", 0, 1, 0.8, slot.StatusAvailable},
		{"capacity one booked", 1, 1, 0.8, slot.StatusFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, slot.DeriveStatus(tc.booked, tc.capacity, tc.threshold))
		})
	}
}

func TestSlot_Status(t *testing.T) {
	s, err := builder.NewSlotBuilder().
		With(func(b *builder.SlotBuilder) { b.BookedCount = 4 }).
		BuildDomain()
	require.NoError(t, err)

	assert.Equal(t, slot.StatusCrowded, s.Status(0.8))
	assert.Equal(t, slot.StatusAvailable, s.Status(0.9))
}
