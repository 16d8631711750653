package components

import (
	"smartqueue/internal/handler"
	"smartqueue/internal/handler/api"
	"smartqueue/internal/handler/middleware"
	"smartqueue/internal/pkg/config"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAppointmentHandler,
		api.NewSlotHandler,
		handler.NewWSHandler,
		middleware.NewAuthMiddleware,
		NewRateLimiter,
	),
	fx.Invoke(handler.NewRouter),
)

func NewRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.Engine)
}
