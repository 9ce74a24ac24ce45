package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tasklist/backend/internal/middleware"
	"tasklist/backend/internal/monitoring"
)

type RouterConfig struct {
	Tasks       *TaskHandler
	Settings    *SettingsHandler
	Admin       *AdminHandler
	Monitor     *monitoring.Monitor
	Auth        middleware.AuthzConfig
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter wires every route. Health and metrics stay public; everything
// else needs a bearer token.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Monitor == nil {
		cfg.Monitor = monitoring.NewMonitor()
	}

	r := gin.New()
	r.Use(
		middleware.RecoveryWithLog(cfg.Logger),
		middleware.RequestLogger(cfg.Logger.Named("http")),
		middleware.CORS(cfg.CORSOrigins),
		cfg.Monitor.Middleware(),
	)

	r.GET("/health", cfg.Monitor.HealthHandler())
	r.GET("/health/live", cfg.Monitor.LivenessHandler())
	r.GET("/health/ready", cfg.Monitor.ReadinessHandler())
	r.GET("/metrics", cfg.Monitor.MetricsHandler())

	api := r.Group("/")
	api.Use(middleware.AuthzMiddleware(cfg.Auth))
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Middleware())
	}

	if h := cfg.Tasks; h != nil {
		tasks := api.Group("/tasks")
		tasks.POST("", h.CreateTask)
		tasks.GET("/today", h.ListToday)
		tasks.GET("/upcoming", h.ListUpcoming)
		tasks.GET("/completed", h.ListCompleted)
		tasks.DELETE("/completed", h.DeleteCompleted)
		tasks.GET("/standup", h.ListStandup)
		tasks.PUT("/reorder", h.Reorder)
		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)

		api.GET("/lists/:id/tasks", h.ListByList)
	}

	if h := cfg.Settings; h != nil {
		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)
	}

	if h := cfg.Admin; h != nil {
		api.POST("/admin/sweep", middleware.RequireRole("admin"), h.Sweep)
	}

	return r
}
