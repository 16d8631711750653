package readstore

import (
	"context"
	"errors"
	"log/slog"

	"smartqueue/internal/infra"
	"smartqueue/internal/usecase/queries"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotReadStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewSlotReadStore(pool *pgxpool.Pool, logger *slog.Logger) *SlotReadStore {
	return &SlotReadStore{pool: pool, logger: logger}
}

var slotViewColumns = []string{
	"sl.id", "sl.service_id", "s.name", "sl.date", "sl.start_time", "sl.end_time",
	"sl.capacity", "sl.booked_count", "sl.status",
}

func (s *SlotReadStore) List(ctx context.Context, filter queries.SlotFilter) ([]queries.SlotView, error) {
	builder := psql.Select(slotViewColumns...).
		From("slots sl").
		Join("services s ON sl.service_id = s.id")

	if filter.ServiceID != nil {
		builder = builder.Where(squirrel.Eq{"sl.service_id": *filter.ServiceID})
	}
	if filter.Date != nil {
		builder = builder.Where(squirrel.Eq{"sl.date": *filter.Date})
	}
	builder = builder.OrderBy("sl.date ASC", "sl.start_time ASC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "build slot list query", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "list slots", err)
	}
	defer rows.Close()

	var views []queries.SlotView
	for rows.Next() {
		view, err := scanSlotView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "scan slot view", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "iterate slots", err)
	}
	return views, nil
}

func (s *SlotReadStore) FindView(ctx context.Context, id uuid.UUID) (*queries.SlotView, error) {
	query, args, err := psql.Select(slotViewColumns...).
		From("slots sl").
		Join("services s ON sl.service_id = s.id").
		Where(squirrel.Eq{"sl.id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "build slot view query", err)
	}

	view, err := scanSlotView(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "slot not found", err)
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindDBFailure, "find slot view", err)
	}
	return view, nil
}

func scanSlotView(row pgx.Row) (*queries.SlotView, error) {
	var view queries.SlotView
	if err := row.Scan(
		&view.ID, &view.ServiceID, &view.ServiceName, &view.Date,
		&view.StartTime, &view.EndTime, &view.Capacity, &view.BookedCount, &view.Status,
	); err != nil {
		return nil, err
	}
	return &view, nil
}
