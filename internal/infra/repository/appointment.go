package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"smartqueue/internal/domain/appointment"
	"smartqueue/internal/infra"
	"smartqueue/internal/usecase/commands"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type AppointmentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewAppointmentRepository(pool *pgxpool.Pool, logger *slog.Logger) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, logger: logger}
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, a *appointment.Appointment) error {
	query, args, err := psql.Insert("appointments").
		Columns("id", "slot_id", "service_id", "user_id", "booking_reference",
			"queue_position", "estimated_wait_minutes", "status", "created_at").
		Values(a.ID(), a.SlotID(), a.ServiceID(), a.UserID(), a.BookingReference(),
			a.QueuePosition(), a.EstimatedWaitMinutes(), string(a.Status()), a.CreatedAt()).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "build create appointment query", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "appointment already exists", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "create appointment", err)
	}
	return nil
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "build find appointment query", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "appointment not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "find appointment", err)
	}
	return appt, nil
}

func (r *AppointmentRepository) MarkCancelled(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	return r.markTerminal(ctx, tx, id, string(appointment.StatusCancelled), "cancelled_at", at)
}

func (r *AppointmentRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	return r.markTerminal(ctx, tx, id, string(appointment.StatusCompleted), "completed_at", at)
}

func (r *AppointmentRepository) markTerminal(ctx context.Context, tx pgx.Tx, id uuid.UUID, status, tsColumn string, at time.Time) error {
	query, args, err := psql.Update("appointments").
		Set("status", status).
		Set(tsColumn, at).
		Where(squirrel.Eq{"id": id, "status": string(appointment.StatusConfirmed)}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "build terminal update query", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "mark appointment "+status, err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "no confirmed appointment to transition", nil)
	}
	return nil
}

// ApplyPositions persists a renumbering batch produced by a cancellation or
// completion earlier in the queue.
func (r *AppointmentRepository) ApplyPositions(ctx context.Context, tx pgx.Tx, updates []commands.PositionUpdate) error {
	for _, u := range updates {
		query, args, err := psql.Update("appointments").
			Set("queue_position", u.QueuePosition).
			Set("estimated_wait_minutes", u.EstimatedWaitMinutes).
			Where(squirrel.Eq{"id": u.AppointmentID}).
			ToSql()
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "build position update query", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "apply queue position", err)
		}
	}
	return nil
}

func (r *AppointmentRepository) ConfirmedBySlot(ctx context.Context, slotID uuid.UUID) ([]*appointment.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"slot_id": slotID, "status": string(appointment.StatusConfirmed)}).
		OrderBy("queue_position ASC").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "build confirmed-by-slot query", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "list confirmed appointments", err)
	}
	defer rows.Close()

	var result []*appointment.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "scan confirmed appointment", err)
		}
		result = append(result, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "iterate confirmed appointments", err)
	}
	return result, nil
}

var appointmentColumns = []string{
	"id", "slot_id", "service_id", "user_id", "booking_reference",
	"queue_position", "estimated_wait_minutes", "status", "created_at",
	"cancelled_at", "completed_at",
}

func scanAppointment(row pgx.Row) (*appointment.Appointment, error) {
	var (
		id, slotID, serviceID, userID uuid.UUID
		ref                           string
		position, wait                int
		status                        string
		createdAt                     time.Time
		cancelledAt, completedAt      *time.Time
	)
	if err := row.Scan(&id, &slotID, &serviceID, &userID, &ref,
		&position, &wait, &status, &createdAt, &cancelledAt, &completedAt); err != nil {
		return nil, err
	}

	st, err := appointment.NewStatus(status)
	if err != nil {
		return nil, err
	}
	return appointment.Reconstruct(id, slotID, serviceID, userID, ref,
		position, wait, st, createdAt, cancelledAt, completedAt), nil
}
