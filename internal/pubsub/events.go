package pubsub

import (
	"github.com/google/uuid"

	"smartqueue/internal/domain/appointment"
	"smartqueue/internal/domain/slot"
)

const (
	TypeSlotUpdate        = "slot_update"
	TypeAppointmentUpdate = "appointment_update"

	// TopicAdmin additionally receives every slot update for dashboards.
	TopicAdmin = "admin"
)

func SlotTopic(slotID uuid.UUID) string {
	return "slot:" + slotID.String()
}

func UserTopic(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// Event is the wire shape pushed to subscribers. Exactly one of the two
// payload groups is set, keyed by Type.
type Event struct {
	Type string `json:"type"`

	// slot_update
	SlotID      *uuid.UUID `json:"slot_id,omitempty"`
	BookedCount *int       `json:"booked_count,omitempty"`

	// appointment_update
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	QueuePosition *int       `json:"queue_position,omitempty"`

	Status string `json:"status"`
}

func NewSlotUpdate(slotID uuid.UUID, bookedCount int, status slot.Status) Event {
	return Event{
		Type:        TypeSlotUpdate,
		SlotID:      &slotID,
		BookedCount: &bookedCount,
		Status:      string(status),
	}
}

func NewAppointmentUpdate(appointmentID uuid.UUID, queuePosition int, status appointment.Status) Event {
	return Event{
		Type:          TypeAppointmentUpdate,
		AppointmentID: &appointmentID,
		QueuePosition: &queuePosition,
		Status:        string(status),
	}
}
