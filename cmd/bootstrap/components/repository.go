package components

import (
	"log/slog"

	infra_catalog "smartqueue/internal/infra/catalog"
	"smartqueue/internal/infra/readstore"
	repo_impl "smartqueue/internal/infra/repository"
	"smartqueue/internal/pkg/config"
	"smartqueue/internal/usecase/commands"
	"smartqueue/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			func(pool *pgxpool.Pool) *pgxpool.Pool { return pool },
			fx.As(new(commands.Pool)),
		),
		fx.Annotate(
			repo_impl.NewAppointmentRepository,
			fx.As(new(commands.AppointmentRepository)),
		),
		fx.Annotate(
			repo_impl.NewSlotRepository,
			fx.As(new(commands.SlotWriteRepository)),
		),
		fx.Annotate(
			repo_impl.NewThroughputRepository,
			fx.As(new(commands.ThroughputRepository)),
		),
		fx.Annotate(
			NewCachedCatalog,
			fx.As(new(commands.Catalog)),
			fx.As(new(queries.ServiceCatalog)),
		),
		// Read-side stores for queries
		fx.Annotate(
			readstore.NewAppointmentReadStore,
			fx.As(new(queries.AppointmentReadStore)),
		),
		fx.Annotate(
			readstore.NewSlotReadStore,
			fx.As(new(queries.SlotReadStore)),
		),
	),
)

func NewCachedCatalog(pool *pgxpool.Pool, cache *redis.Client, cfg config.Config, logger *slog.Logger) *infra_catalog.CachedCatalog {
	return infra_catalog.NewCachedCatalog(pool, cache, cfg.Redis, logger)
}
