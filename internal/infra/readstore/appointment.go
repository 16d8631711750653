package readstore

import (
	"context"
	"errors"
	"log/slog"

	"smartqueue/internal/domain/appointment"
	"smartqueue/internal/infra"
	"smartqueue/internal/usecase/queries"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// AppointmentReadStore serves the query side straight from the write store:
// the coordinator commits positions and counts transactionally, so reads here
// are the latest acknowledged state.
type AppointmentReadStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAppointmentReadStore(pool *pgxpool.Pool, logger *slog.Logger) *AppointmentReadStore {
	return &AppointmentReadStore{pool: pool, logger: logger}
}

var appointmentViewColumns = []string{
	"a.id", "a.slot_id", "a.service_id", "s.name", "a.user_id",
	"a.booking_reference", "a.queue_position", "a.estimated_wait_minutes",
	"a.status", "a.created_at", "a.cancelled_at", "a.completed_at",
}

func (s *AppointmentReadStore) FindView(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	query, args, err := psql.Select(appointmentViewColumns...).
		From("appointments a").
		Join("services s ON a.service_id = s.id").
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "build appointment view query", err)
	}

	view, err := scanAppointmentView(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "appointment not found", err)
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "find appointment view", err)
	}
	return view, nil
}

func (s *AppointmentReadStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]queries.AppointmentView, error) {
	query, args, err := psql.Select(appointmentViewColumns...).
		From("appointments a").
		Join("services s ON a.service_id = s.id").
		Where(squirrel.Eq{"a.user_id": userID}).
		OrderBy("a.created_at DESC").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "build user appointments query", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "list user appointments", err)
	}
	defer rows.Close()

	var views []queries.AppointmentView
	for rows.Next() {
		view, err := scanAppointmentView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "scan appointment view", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "iterate user appointments", err)
	}
	return views, nil
}

func (s *AppointmentReadStore) ConfirmedCountBySlot(ctx context.Context, slotID uuid.UUID) (int, error) {
	query, args, err := psql.Select("count(*)").
		From("appointments").
		Where(squirrel.Eq{"slot_id": slotID, "status": string(appointment.StatusConfirmed)}).
		ToSql()
	if err != nil {
		return 0, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "build confirmed count query", err)
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "count confirmed appointments", err)
	}
	return count, nil
}

func scanAppointmentView(row pgx.Row) (*queries.AppointmentView, error) {
	var view queries.AppointmentView
	if err := row.Scan(
		&view.ID, &view.SlotID, &view.ServiceID, &view.ServiceName, &view.UserID,
		&view.BookingReference, &view.QueuePosition, &view.EstimatedWaitMinutes,
		&view.Status, &view.CreatedAt, &view.CancelledAt, &view.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &view, nil
}
