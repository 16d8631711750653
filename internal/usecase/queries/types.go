package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type AppointmentView struct {
	ID                   uuid.UUID  `json:"id"`
	SlotID               uuid.UUID  `json:"slot_id"`
	ServiceID            uuid.UUID  `json:"service_id"`
	ServiceName          string     `json:"service_name"`
	UserID               uuid.UUID  `json:"user_id"`
	BookingReference     string     `json:"booking_reference"`
	QueuePosition        int        `json:"queue_position"`
	EstimatedWaitMinutes int        `json:"estimated_wait_minutes"`
	Status               string     `json:"status"`
	CreatedAt            time.Time  `json:"created_at"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

type QueueStatusView struct {
	AppointmentID        uuid.UUID `json:"appointment_id"`
	BookingReference     string    `json:"booking_reference"`
	QueuePosition        int       `json:"queue_position"`
	TotalInQueue         int       `json:"total_in_queue"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes"`
	Status               string    `json:"status"`
}

type SlotView struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"service_id"`
	ServiceName string    `json:"service_name"`
	Date        time.Time `json:"date"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity"`
	BookedCount int       `json:"booked_count"`
	Status      string    `json:"status"`
}

type SlotFilter struct {
	ServiceID *uuid.UUID
	Date      *time.Time
}
