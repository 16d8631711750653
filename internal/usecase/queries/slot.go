package queries

import (
	"context"

	"smartqueue/internal/infra"
	"smartqueue/internal/pkg/errs"

	"github.com/google/uuid"
)

type SlotReadStore interface {
	List(ctx context.Context, filter SlotFilter) ([]SlotView, error)
	FindView(ctx context.Context, id uuid.UUID) (*SlotView, error)
}

// SlotQueries is the read-only board the booking UI and the external
// alternative-slot recommender both consume.
type SlotQueries interface {
	List(ctx context.Context, filter SlotFilter) ([]SlotView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*SlotView, error)
}

type slotQueriesImpl struct {
	store SlotReadStore
}

func NewSlotQueries(store SlotReadStore) SlotQueries {
	return &slotQueriesImpl{store: store}
}

func (q *slotQueriesImpl) List(ctx context.Context, filter SlotFilter) ([]SlotView, error) {
	return q.store.List(ctx, filter)
}

func (q *slotQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*SlotView, error) {
	view, err := q.store.FindView(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrSlotNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, nil
}
