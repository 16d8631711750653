//go:build unit

package queries_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"smartqueue/internal/domain/catalog"
	"smartqueue/internal/domain/identity"
	"smartqueue/internal/engine"
	"smartqueue/internal/infra"
	"smartqueue/internal/pkg/clock"
	"smartqueue/internal/pkg/errs"
	"smartqueue/internal/usecase/queries"
	"smartqueue/tests/common/builder"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReadStore struct {
	views          map[uuid.UUID]*queries.AppointmentView
	confirmedCount int
	listed         []queries.AppointmentView
}

func (s *stubReadStore) FindView(_ context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	view, ok := s.views[id]
	if !ok {
		return nil, infra.WrapRepoErr(slog.Default(), infra.KindNotFound, "appointment not found", pgx.ErrNoRows)
	}
	return view, nil
}

func (s *stubReadStore) ListByUser(_ context.Context, userID uuid.UUID) ([]queries.AppointmentView, error) {
	return s.listed, nil
}

func (s *stubReadStore) ConfirmedCountBySlot(_ context.Context, _ uuid.UUID) (int, error) {
	return s.confirmedCount, nil
}

type stubServiceCatalog struct {
	services map[uuid.UUID]*catalog.Service
}

func (s *stubServiceCatalog) Service(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	svc, ok := s.services[id]
	if !ok {
		return nil, infra.WrapRepoErr(slog.Default(), infra.KindNotFound, "service not found", pgx.ErrNoRows)
	}
	return svc, nil
}

func newBookingQueries(t *testing.T, store *stubReadStore, cat *stubServiceCatalog) (queries.BookingQueries, *engine.WaitEstimator) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	estimator := engine.NewWaitEstimator(0.3, clk, nil)
	return queries.NewBookingQueries(store, cat, estimator), estimator
}

func TestBookingQueries_QueueStatus(t *testing.T) {
	b := builder.NewAppointmentBuilder()
	view := b.BuildView()
	view.QueuePosition = 2
	view.EstimatedWaitMinutes = 30

	store := &stubReadStore{
		views:          map[uuid.UUID]*queries.AppointmentView{view.ID: view},
		confirmedCount: 4,
	}
	svc, err := catalog.NewService(view.ServiceID, "General Consultation", 15, true)
	require.NoError(t, err)
	cat := &stubServiceCatalog{services: map[uuid.UUID]*catalog.Service{view.ServiceID: svc}}

	t.Run("recomputes wait against current throughput", func(t *testing.T) {
		q, estimator := newBookingQueries(t, store, cat)
		estimator.RecordCompletion(view.ServiceID, 10)

		status, err := q.QueueStatus(context.Background(), view.ID)
		require.NoError(t, err)

		assert.Equal(t, view.ID, status.AppointmentID)
		assert.Equal(t, 2, status.QueuePosition)
		assert.Equal(t, 4, status.TotalInQueue)
		// position 2 at 10 min/serve, not the persisted 30
		assert.Equal(t, 20, status.EstimatedWaitMinutes)
	})

	t.Run("falls back to service default without observations", func(t *testing.T) {
		q, _ := newBookingQueries(t, store, cat)

		status, err := q.QueueStatus(context.Background(), view.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, status.EstimatedWaitMinutes)
	})

	t.Run("keeps persisted wait when service lookup fails", func(t *testing.T) {
		q, _ := newBookingQueries(t, store, &stubServiceCatalog{services: map[uuid.UUID]*catalog.Service{}})

		status, err := q.QueueStatus(context.Background(), view.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, status.EstimatedWaitMinutes)
	})

	t.Run("missing appointment", func(t *testing.T) {
		q, _ := newBookingQueries(t, store, cat)

		_, err := q.QueueStatus(context.Background(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrAppointmentNotFound)
	})
}

func TestBookingQueries_GetByID(t *testing.T) {
	view := builder.NewAppointmentBuilder().BuildView()
	store := &stubReadStore{views: map[uuid.UUID]*queries.AppointmentView{view.ID: view}}
	cat := &stubServiceCatalog{services: map[uuid.UUID]*catalog.Service{}}

	t.Run("owner can read", func(t *testing.T) {
		q, _ := newBookingQueries(t, store, cat)

		got, err := q.GetByID(context.Background(), view.ID, view.UserID, identity.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		q, _ := newBookingQueries(t, store, cat)

		_, err := q.GetByID(context.Background(), view.ID, uuid.New(), identity.RoleUser)
		assert.ErrorIs(t, err, errs.ErrNotOwner)
	})

	t.Run("admin can read anyone's", func(t *testing.T) {
		q, _ := newBookingQueries(t, store, cat)

		got, err := q.GetByID(context.Background(), view.ID, uuid.New(), identity.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	})

	t.Run("missing appointment", func(t *testing.T) {
		q, _ := newBookingQueries(t, store, cat)

		_, err := q.GetByID(context.Background(), uuid.New(), view.UserID, identity.RoleUser)
		assert.ErrorIs(t, err, errs.ErrAppointmentNotFound)
	})
}
