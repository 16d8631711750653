package request

import (
	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	SlotID    uuid.UUID `json:"slotId" binding:"required"`
	ServiceID uuid.UUID `json:"serviceId" binding:"required"`
}

// CompleteAppointmentRequest carries the observed service duration reported by
// the counter staff's time-keeping client.
type CompleteAppointmentRequest struct {
	DurationMinutes float64 `json:"durationMinutes" binding:"required,gt=0"`
}
