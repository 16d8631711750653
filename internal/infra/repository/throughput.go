package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"smartqueue/internal/engine"
	"smartqueue/internal/infra"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ThroughputRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewThroughputRepository(pool *pgxpool.Pool, logger *slog.Logger) *ThroughputRepository {
	return &ThroughputRepository{pool: pool, logger: logger}
}

func (r *ThroughputRepository) Upsert(ctx context.Context, sample engine.ThroughputSample) error {
	query, args, err := psql.Insert("throughput_samples").
		Columns("service_id", "avg_minutes", "sample_count", "last_updated").
		Values(sample.ServiceID, sample.AvgMinutes, sample.SampleCount, sample.LastUpdated).
		Suffix("ON CONFLICT (service_id) DO UPDATE SET avg_minutes = EXCLUDED.avg_minutes, sample_count = EXCLUDED.sample_count, last_updated = EXCLUDED.last_updated").
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "build throughput upsert query", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "upsert throughput sample", err)
	}
	return nil
}

func (r *ThroughputRepository) FindByService(ctx context.Context, serviceID uuid.UUID) (*engine.ThroughputSample, error) {
	query, args, err := psql.Select("service_id", "avg_minutes", "sample_count", "last_updated").
		From("throughput_samples").
		Where(squirrel.Eq{"service_id": serviceID}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "build throughput lookup query", err)
	}

	var (
		sample      engine.ThroughputSample
		lastUpdated time.Time
	)
	err = r.pool.QueryRow(ctx, query, args...).
		Scan(&sample.ServiceID, &sample.AvgMinutes, &sample.SampleCount, &lastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No history yet is not an error; the estimator falls back to the
			// service's configured duration.
			return nil, nil
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "find throughput sample", err)
	}
	sample.LastUpdated = lastUpdated
	return &sample, nil
}
