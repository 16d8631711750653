package slot

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCapacity  = errors.New("capacity must be positive")
	ErrInvalidOccupancy = errors.New("booked count out of range")
	ErrInvalidWindow    = errors.New("slot window is invalid")
)

// DefaultCrowdedThreshold is the occupancy ratio at which a slot reports
// CROWDED instead of AVAILABLE.
const DefaultCrowdedThreshold = 0.8

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusCrowded   Status = "CROWDED"
	StatusFull      Status = "FULL"
)

// Slot is a bounded-capacity, time-boxed service window. capacity and
// bookedCount are the only fields this service mutates; the rest is catalog
// reference data.
type Slot struct {
	id          uuid.UUID
	serviceID   uuid.UUID
	date        time.Time
	startTime   time.Time
	endTime     time.Time
	capacity    int
	bookedCount int
}

func NewSlot(id, serviceID uuid.UUID, date, startTime, endTime time.Time, capacity, bookedCount int) (*Slot, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if bookedCount < 0 || bookedCount > capacity {
		return nil, ErrInvalidOccupancy
	}
	if !endTime.After(startTime) {
		return nil, ErrInvalidWindow
	}
	return &Slot{
		id:          id,
		serviceID:   serviceID,
		date:        date,
		startTime:   startTime,
		endTime:     endTime,
		capacity:    capacity,
		bookedCount: bookedCount,
	}, nil
}

func (s *Slot) ID() uuid.UUID        { return s.id }
func (s *Slot) ServiceID() uuid.UUID { return s.serviceID }
func (s *Slot) Date() time.Time      { return s.date }
func (s *Slot) StartTime() time.Time { return s.startTime }
func (s *Slot) EndTime() time.Time   { return s.endTime }
func (s *Slot) Capacity() int        { return s.capacity }
func (s *Slot) BookedCount() int     { return s.bookedCount }

func (s *Slot) Status(threshold float64) Status {
	return DeriveStatus(s.bookedCount, s.capacity, threshold)
}

func (s *Slot) IsFull() bool {
	return s.bookedCount >= s.capacity
}

// DeriveStatus is the single occupancy→status rule: FULL at capacity, CROWDED
// at or above the threshold ratio, AVAILABLE otherwise.
func DeriveStatus(bookedCount, capacity int, threshold float64) Status {
	if capacity <= 0 || bookedCount >= capacity {
		return StatusFull
	}
	if threshold <= 0 {
		threshold = DefaultCrowdedThreshold
	}
	if float64(bookedCount)/float64(capacity) >= threshold {
		return StatusCrowded
	}
	return StatusAvailable
}
