package response

import (
	"time"

	"smartqueue/internal/usecase/commands"
	"smartqueue/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type AppointmentResponse struct {
	ID                   uuid.UUID  `json:"id"`
	SlotID               uuid.UUID  `json:"slotId"`
	ServiceID            uuid.UUID  `json:"serviceId"`
	ServiceName          string     `json:"serviceName"`
	UserID               uuid.UUID  `json:"userId"`
	BookingReference     string     `json:"bookingReference"`
	QueuePosition        int        `json:"queuePosition"`
	EstimatedWaitMinutes int        `json:"estimatedWaitMinutes"`
	Status               string     `json:"status"`
	CreatedAt            time.Time  `json:"createdAt"`
	CancelledAt          *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
}

type BookResultResponse struct {
	AppointmentID        uuid.UUID `json:"appointmentId"`
	SlotID               uuid.UUID `json:"slotId"`
	ServiceID            uuid.UUID `json:"serviceId"`
	BookingReference     string    `json:"bookingReference"`
	QueuePosition        int       `json:"queuePosition"`
	EstimatedWaitMinutes int       `json:"estimatedWaitMinutes"`
	Status               string    `json:"status"`
}

type QueueStatusResponse struct {
	AppointmentID        uuid.UUID `json:"appointmentId"`
	BookingReference     string    `json:"bookingReference"`
	QueuePosition        int       `json:"queuePosition"`
	TotalInQueue         int       `json:"totalInQueue"`
	EstimatedWaitMinutes int       `json:"estimatedWaitMinutes"`
	Status               string    `json:"status"`
}

func FromAppointmentView(rm *queries.AppointmentView) *AppointmentResponse {
	var resp AppointmentResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}

func FromBookResult(r *commands.BookResult) *BookResultResponse {
	return &BookResultResponse{
		AppointmentID:        r.AppointmentID,
		SlotID:               r.SlotID,
		ServiceID:            r.ServiceID,
		BookingReference:     r.BookingReference,
		QueuePosition:        r.QueuePosition,
		EstimatedWaitMinutes: r.EstimatedWaitMinutes,
		Status:               string(r.Status),
	}
}

func FromQueueStatusView(rm *queries.QueueStatusView) *QueueStatusResponse {
	var resp QueueStatusResponse
	_ = copier.Copy(&resp, rm)
	return &resp
}
