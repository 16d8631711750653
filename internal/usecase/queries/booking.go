package queries

import (
	"context"

	"smartqueue/internal/domain/catalog"
	"smartqueue/internal/domain/identity"
	"smartqueue/internal/engine"
	"smartqueue/internal/infra"
	"smartqueue/internal/pkg/errs"

	"github.com/google/uuid"
)

type AppointmentReadStore interface {
	FindView(ctx context.Context, id uuid.UUID) (*AppointmentView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]AppointmentView, error)
	ConfirmedCountBySlot(ctx context.Context, slotID uuid.UUID) (int, error)
}

type ServiceCatalog interface {
	Service(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
}

type BookingQueries interface {
	// QueueStatus reflects the latest committed state: position and totals
	// come from the store the coordinator writes through, and the wait is
	// recomputed against the estimator's current throughput.
	QueueStatus(ctx context.Context, appointmentID uuid.UUID) (*QueueStatusView, error)
	GetByID(ctx context.Context, appointmentID, callerID uuid.UUID, role identity.Role) (*AppointmentView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]AppointmentView, error)
}

type bookingQueriesImpl struct {
	store     AppointmentReadStore
	catalog   ServiceCatalog
	estimator *engine.WaitEstimator
}

func NewBookingQueries(store AppointmentReadStore, cat ServiceCatalog, estimator *engine.WaitEstimator) BookingQueries {
	return &bookingQueriesImpl{
		store:     store,
		catalog:   cat,
		estimator: estimator,
	}
}

func (q *bookingQueriesImpl) QueueStatus(ctx context.Context, appointmentID uuid.UUID) (*QueueStatusView, error) {
	view, err := q.findView(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	total, err := q.store.ConfirmedCountBySlot(ctx, view.SlotID)
	if err != nil {
		return nil, err
	}

	wait := view.EstimatedWaitMinutes
	if svc, svcErr := q.catalog.Service(ctx, view.ServiceID); svcErr == nil {
		wait = q.estimator.Estimate(view.ServiceID, view.QueuePosition, svc.AvgDurationMinutes())
	}

	return &QueueStatusView{
		AppointmentID:        view.ID,
		BookingReference:     view.BookingReference,
		QueuePosition:        view.QueuePosition,
		TotalInQueue:         total,
		EstimatedWaitMinutes: wait,
		Status:               view.Status,
	}, nil
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, appointmentID, callerID uuid.UUID, role identity.Role) (*AppointmentView, error) {
	view, err := q.findView(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !role.IsAdmin() && view.UserID != callerID {
		return nil, errs.ErrNotOwner
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]AppointmentView, error) {
	return q.store.ListByUser(ctx, userID)
}

func (q *bookingQueriesImpl) findView(ctx context.Context, appointmentID uuid.UUID) (*AppointmentView, error) {
	view, err := q.store.FindView(ctx, appointmentID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrAppointmentNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, nil
}
