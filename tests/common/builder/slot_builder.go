//go:build unit || e2e

package builder

import (
	"time"

	domslot "smartqueue/internal/domain/slot"
	"smartqueue/internal/usecase/queries"

	"github.com/google/uuid"
)

type SlotBuilder struct {
	ID          uuid.UUID
	ServiceID   uuid.UUID
	ServiceName string
	Date        time.Time
	StartTime   time.Time
	EndTime     time.Time
	Capacity    int
	BookedCount int
}

func NewSlotBuilder() *SlotBuilder {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &SlotBuilder{
		ID:          uuid.New(),
		ServiceID:   uuid.New(),
		ServiceName: "General Consultation",
		Date:        date,
		StartTime:   date.Add(9 * time.Hour),
		EndTime:     date.Add(10 * time.Hour),
		Capacity:    5,
		BookedCount: 0,
	}
}

func (b *SlotBuilder) With(mutate func(*SlotBuilder)) *SlotBuilder {
	mutate(b)
	return b
}

// Build methods
func (b *SlotBuilder) BuildDomain() (*domslot.Slot, error) {
	return domslot.NewSlot(b.ID, b.ServiceID, b.Date, b.StartTime, b.EndTime, b.Capacity, b.BookedCount)
}

func (b *SlotBuilder) BuildView() *queries.SlotView {
	return &queries.SlotView{
		ID:          b.ID,
		ServiceID:   b.ServiceID,
		ServiceName: b.ServiceName,
		Date:        b.Date,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Capacity:    b.Capacity,
		BookedCount: b.BookedCount,
		Status:      string(domslot.DeriveStatus(b.BookedCount, b.Capacity, domslot.DefaultCrowdedThreshold)),
	}
}
