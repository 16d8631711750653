//go:build unit || e2e

package builder

import (
	"time"

	domappointment "smartqueue/internal/domain/appointment"
	reqdto "smartqueue/internal/handler/dto/request"
	"smartqueue/internal/usecase/queries"

	"github.com/google/uuid"
)

type AppointmentBuilder struct {
	ID                   uuid.UUID
	SlotID               uuid.UUID
	ServiceID            uuid.UUID
	ServiceName          string
	UserID               uuid.UUID
	BookingReference     string
	QueuePosition        int
	EstimatedWaitMinutes int
	Status               domappointment.Status
	CreatedAt            time.Time
}

func NewAppointmentBuilder() *AppointmentBuilder {
	return &AppointmentBuilder{
		ID:                   uuid.New(),
		SlotID:               uuid.New(),
		ServiceID:            uuid.New(),
		ServiceName:          "General Consultation",
		UserID:               uuid.New(),
		BookingReference:     "SQ-A1B2C3D4",
		QueuePosition:        1,
		EstimatedWaitMinutes: 15,
		Status:               domappointment.StatusConfirmed,
		CreatedAt:            time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (b *AppointmentBuilder) With(mutate func(*AppointmentBuilder)) *AppointmentBuilder {
	mutate(b)
	return b
}

// Build methods
func (b *AppointmentBuilder) BuildDomain() (*domappointment.Appointment, error) {
	return domappointment.NewAppointment(
		b.SlotID, b.ServiceID, b.UserID, b.BookingReference,
		b.QueuePosition, b.EstimatedWaitMinutes, b.CreatedAt,
	)
}

func (b *AppointmentBuilder) BuildReconstructed() *domappointment.Appointment {
	return domappointment.Reconstruct(
		b.ID, b.SlotID, b.ServiceID, b.UserID, b.BookingReference,
		b.QueuePosition, b.EstimatedWaitMinutes, b.Status, b.CreatedAt, nil, nil,
	)
}

func (b *AppointmentBuilder) BuildView() *queries.AppointmentView {
	return &queries.AppointmentView{
		ID:                   b.ID,
		SlotID:               b.SlotID,
		ServiceID:            b.ServiceID,
		ServiceName:          b.ServiceName,
		UserID:               b.UserID,
		BookingReference:     b.BookingReference,
		QueuePosition:        b.QueuePosition,
		EstimatedWaitMinutes: b.EstimatedWaitMinutes,
		Status:               string(b.Status),
		CreatedAt:            b.CreatedAt,
	}
}

func (b *AppointmentBuilder) BuildCreateRequestDTO() reqdto.CreateAppointmentRequest {
	return reqdto.CreateAppointmentRequest{
		SlotID:    b.SlotID,
		ServiceID: b.ServiceID,
	}
}
