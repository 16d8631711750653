package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPosition = errors.New("queue position must be 1-based")
	ErrNegativeWait    = errors.New("estimated wait cannot be negative")
	ErrInvalidStatus   = errors.New("invalid appointment status")
	ErrNotConfirmed    = errors.New("appointment is not confirmed")
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func NewStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Appointment is a user's claim on one unit of a slot's capacity. Queue
// position is immutable except through Reposition, which only the coordinator
// calls while it holds the slot's section.
type Appointment struct {
	id                   uuid.UUID
	slotID               uuid.UUID
	serviceID            uuid.UUID
	userID               uuid.UUID
	bookingReference     string
	queuePosition        int
	estimatedWaitMinutes int
	status               Status
	createdAt            time.Time
	cancelledAt          *time.Time
	completedAt          *time.Time
}

func NewAppointment(slotID, serviceID, userID uuid.UUID, bookingReference string, queuePosition, estimatedWaitMinutes int, now time.Time) (*Appointment, error) {
	if queuePosition < 1 {
		return nil, ErrInvalidPosition
	}
	if estimatedWaitMinutes < 0 {
		return nil, ErrNegativeWait
	}
	return &Appointment{
		id:                   uuid.New(),
		slotID:               slotID,
		serviceID:            serviceID,
		userID:               userID,
		bookingReference:     bookingReference,
		queuePosition:        queuePosition,
		estimatedWaitMinutes: estimatedWaitMinutes,
		status:               StatusConfirmed,
		createdAt:            now,
	}, nil
}

func Reconstruct(
	id, slotID, serviceID, userID uuid.UUID,
	bookingReference string,
	queuePosition, estimatedWaitMinutes int,
	status Status,
	createdAt time.Time,
	cancelledAt, completedAt *time.Time,
) *Appointment {
	return &Appointment{
		id:                   id,
		slotID:               slotID,
		serviceID:            serviceID,
		userID:               userID,
		bookingReference:     bookingReference,
		queuePosition:        queuePosition,
		estimatedWaitMinutes: estimatedWaitMinutes,
		status:               status,
		createdAt:            createdAt,
		cancelledAt:          cancelledAt,
		completedAt:          completedAt,
	}
}

// Cancel transitions CONFIRMED→CANCELLED; any other source state is rejected
// so double-cancels surface as a no-op to the caller.
func (a *Appointment) Cancel(now time.Time) error {
	if a.status != StatusConfirmed {
		return ErrNotConfirmed
	}
	a.status = StatusCancelled
	a.cancelledAt = &now
	return nil
}

func (a *Appointment) Complete(now time.Time) error {
	if a.status != StatusConfirmed {
		return ErrNotConfirmed
	}
	a.status = StatusCompleted
	a.completedAt = &now
	return nil
}

// Reposition shifts the appointment forward after a cancellation earlier in
// its slot's queue and refreshes the wait estimate.
func (a *Appointment) Reposition(position, estimatedWaitMinutes int) error {
	if position < 1 {
		return ErrInvalidPosition
	}
	if estimatedWaitMinutes < 0 {
		return ErrNegativeWait
	}
	a.queuePosition = position
	a.estimatedWaitMinutes = estimatedWaitMinutes
	return nil
}

func (a *Appointment) IsActive() bool {
	return a.status == StatusConfirmed
}

func (a *Appointment) ID() uuid.UUID             { return a.id }
func (a *Appointment) SlotID() uuid.UUID         { return a.slotID }
func (a *Appointment) ServiceID() uuid.UUID      { return a.serviceID }
func (a *Appointment) UserID() uuid.UUID         { return a.userID }
func (a *Appointment) BookingReference() string  { return a.bookingReference }
func (a *Appointment) QueuePosition() int        { return a.queuePosition }
func (a *Appointment) EstimatedWaitMinutes() int { return a.estimatedWaitMinutes }
func (a *Appointment) Status() Status            { return a.status }
func (a *Appointment) CreatedAt() time.Time      { return a.createdAt }
func (a *Appointment) CancelledAt() *time.Time   { return a.cancelledAt }
func (a *Appointment) CompletedAt() *time.Time   { return a.completedAt }
