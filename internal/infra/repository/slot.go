package repository

import (
	"context"
	"log/slog"

	"smartqueue/internal/domain/slot"
	"smartqueue/internal/infra"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewSlotRepository(pool *pgxpool.Pool, logger *slog.Logger) *SlotRepository {
	return &SlotRepository{pool: pool, logger: logger}
}

// SetOccupancy writes the ledger's committed occupancy through to the slot
// row; runs in the same transaction as the appointment mutation so the two
// can never diverge durably.
func (r *SlotRepository) SetOccupancy(ctx context.Context, tx pgx.Tx, slotID uuid.UUID, bookedCount int, status slot.Status) error {
	query, args, err := psql.Update("slots").
		Set("booked_count", bookedCount).
		Set("status", string(status)).
		Where(squirrel.Eq{"id": slotID}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "build slot occupancy query", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "update slot occupancy", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "slot not found for occupancy update", nil)
	}
	return nil
}
