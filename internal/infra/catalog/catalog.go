// Package catalog reads slot and service reference data from Postgres with a
// Redis read-through cache in front. The engine treats this data as external:
// it is owned by the scheduling catalog, and this service only invalidates the
// slot entry after changing a slot's occupancy.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"smartqueue/internal/domain/catalog"
	"smartqueue/internal/domain/slot"
	"smartqueue/internal/infra"
	"smartqueue/internal/pkg/config"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const (
	slotKeyPrefix    = "catalog:slot:"
	serviceKeyPrefix = "catalog:service:"
)

type CachedCatalog struct {
	pool   *pgxpool.Pool
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedCatalog(pool *pgxpool.Pool, cache *redis.Client, cfg config.RedisConfig, logger *slog.Logger) *CachedCatalog {
	return &CachedCatalog{
		pool:   pool,
		cache:  cache,
		ttl:    cfg.CatalogTTL,
		logger: logger,
	}
}

// cache payloads; the domain entities keep their fields unexported so the
// cache round-trips through these instead.
type slotPayload struct {
	ID          uuid.UUID `json:"id"`
	ServiceID   uuid.UUID `json:"service_id"`
	Date        time.Time `json:"date"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity"`
	BookedCount int       `json:"booked_count"`
}

type servicePayload struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	AvgDurationMinutes int       `json:"avg_duration_minutes"`
	IsActive           bool      `json:"is_active"`
}

func (c *CachedCatalog) Slot(ctx context.Context, id uuid.UUID) (*slot.Slot, error) {
	key := slotKeyPrefix + id.String()
	if cached, ok := c.fetch(ctx, key); ok {
		var p slotPayload
		if err := json.Unmarshal(cached, &p); err == nil {
			return slot.NewSlot(p.ID, p.ServiceID, p.Date, p.StartTime, p.EndTime, p.Capacity, p.BookedCount)
		}
		c.logger.Warn("discarding malformed slot cache entry", "key", key)
	}

	p, err := c.querySlot(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, p)
	return slot.NewSlot(p.ID, p.ServiceID, p.Date, p.StartTime, p.EndTime, p.Capacity, p.BookedCount)
}

func (c *CachedCatalog) Service(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	key := serviceKeyPrefix + id.String()
	if cached, ok := c.fetch(ctx, key); ok {
		var p servicePayload
		if err := json.Unmarshal(cached, &p); err == nil {
			return catalog.NewService(p.ID, p.Name, p.AvgDurationMinutes, p.IsActive)
		}
		c.logger.Warn("discarding malformed service cache entry", "key", key)
	}

	p, err := c.queryService(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, p)
	return catalog.NewService(p.ID, p.Name, p.AvgDurationMinutes, p.IsActive)
}

// InvalidateSlot drops the cached slot entry so the next read sees the
// occupancy the coordinator just committed. Best-effort: a failed delete only
// means stale reads until the TTL expires.
func (c *CachedCatalog) InvalidateSlot(ctx context.Context, id uuid.UUID) {
	if err := c.cache.Del(ctx, slotKeyPrefix+id.String()).Err(); err != nil {
		c.logger.Warn("failed to invalidate slot cache entry", "slot_id", id, "error", err)
	}
}

func (c *CachedCatalog) fetch(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed, falling through to db", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (c *CachedCatalog) store(ctx context.Context, key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("failed to encode catalog cache entry", "key", key, "error", err)
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

func (c *CachedCatalog) querySlot(ctx context.Context, id uuid.UUID) (*slotPayload, error) {
	query, args, err := psql.Select("id", "service_id", "date", "start_time", "end_time", "capacity", "booked_count").
		From("slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(c.logger, infra.KindDBFailure, "build slot lookup query", err)
	}

	var p slotPayload
	err = c.pool.QueryRow(ctx, query, args...).
		Scan(&p.ID, &p.ServiceID, &p.Date, &p.StartTime, &p.EndTime, &p.Capacity, &p.BookedCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(c.logger, infra.KindNotFound, "slot not found", err)
		}
		return nil, infra.WrapRepoErr(c.logger, infra.KindDBFailure, "find slot", err)
	}
	return &p, nil
}

func (c *CachedCatalog) queryService(ctx context.Context, id uuid.UUID) (*servicePayload, error) {
	query, args, err := psql.Select("id", "name", "avg_duration_minutes", "is_active").
		From("services").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(c.logger, infra.KindDBFailure, "build service lookup query", err)
	}

	var p servicePayload
	err = c.pool.QueryRow(ctx, query, args...).
		Scan(&p.ID, &p.Name, &p.AvgDurationMinutes, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(c.logger, infra.KindNotFound, "service not found", err)
		}
		return nil, infra.WrapRepoErr(c.logger, infra.KindDBFailure, "find service", err)
	}
	return &p, nil
}
