package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"smartqueue/internal/domain/identity"
	"smartqueue/internal/handler/api"
	"smartqueue/internal/handler/middleware"
	"smartqueue/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	appointmentHandler *api.AppointmentHandler,
	slotHandler *api.SlotHandler,
	wsHandler *WSHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
) {
	setupMiddleware(engine, cfg, rateLimiter)
	setupRoutes(engine, appointmentHandler, slotHandler, wsHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, rateLimiter *middleware.RateLimiter) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
	engine.Use(rateLimiter.Middleware())
}

func setupRoutes(
	engine *gin.Engine,
	appointmentHandler *api.AppointmentHandler,
	slotHandler *api.SlotHandler,
	wsHandler *WSHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ws := engine.Group("/ws")
	ws.Use(authMiddleware.RequireAuth())
	ws.GET("", wsHandler.Subscribe)

	apiGroup := engine.Group("/api")
	{
		slots := apiGroup.Group("/slots")
		{
			addRoutes(slots, []route{
				{Method: http.MethodGet, Path: "", Handler: slotHandler.ListSlots},
				{Method: http.MethodGet, Path: "/:id", Handler: slotHandler.GetSlot},
			})
		}

		appointments := apiGroup.Group("/appointments")
		appointments.Use(authMiddleware.RequireAuth())
		{
			addRoutes(appointments, []route{
				{Method: http.MethodPost, Path: "", Handler: appointmentHandler.CreateAppointment},
				{Method: http.MethodGet, Path: "", Handler: appointmentHandler.GetUserAppointments},
				{Method: http.MethodGet, Path: "/:id", Handler: appointmentHandler.GetAppointment},
				{Method: http.MethodDelete, Path: "/:id", Handler: appointmentHandler.CancelAppointment},
				{Method: http.MethodGet, Path: "/:id/queue", Handler: appointmentHandler.GetQueueStatus},
				{
					Method:  http.MethodPost,
					Path:    "/:id/complete",
					Handler: appointmentHandler.CompleteAppointment,
					Mw:      []gin.HandlerFunc{authMiddleware.RequireRoleAtLeast(identity.RoleAdmin)},
				},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
