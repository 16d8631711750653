package components

import (
	"log/slog"

	"smartqueue/internal/engine"
	"smartqueue/internal/pkg/clock"
	"smartqueue/internal/pkg/config"
	"smartqueue/internal/pubsub"
	"smartqueue/internal/usecase/commands"

	"go.uber.org/fx"
)

// EngineModule wires the in-memory authoritative state: one guard, ledger,
// allocator, estimator and broadcaster per process.
var EngineModule = fx.Module("engine",
	fx.Provide(
		NewSlotGuard,
		NewSlotLedger,
		engine.NewQueueAllocator,
		NewWaitEstimator,
		NewBroadcaster,
		fx.Annotate(
			func(b *pubsub.Broadcaster) *pubsub.Broadcaster { return b },
			fx.As(new(commands.EventPublisher)),
		),
	),
)

func NewSlotGuard(cfg config.Config) *engine.SlotGuard {
	return engine.NewSlotGuard(cfg.Engine.SlotLockTimeout)
}

func NewSlotLedger(cfg config.Config) *engine.SlotLedger {
	return engine.NewSlotLedger(cfg.Engine.CrowdedThreshold)
}

func NewWaitEstimator(cfg config.Config, clk clock.Clock, logger *slog.Logger) *engine.WaitEstimator {
	return engine.NewWaitEstimator(cfg.Engine.EstimatorAlpha, clk, logger)
}

func NewBroadcaster(cfg config.Config, logger *slog.Logger) *pubsub.Broadcaster {
	return pubsub.NewBroadcaster(cfg.Engine.SubscriberBuffer, logger)
}
