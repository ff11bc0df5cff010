package handlers

import (
	"context"

	_ "schedule_controller/docs"
	"schedule_controller/internal/logger"
	"schedule_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	limiter  *ipLimiter

	// lifetime ends when the device restarts; long-lived streams close then.
	lifetime context.Context
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		services: services,
		log:      log,
		limiter:  newIPLimiter(defaultRatePerSec, defaultBurst),
		lifetime: context.Background(),
	}
}

// SetLifetime ties hijacked connections such as /ws to ctx. Server shutdown
// does not close them, so the boot that owns the handler cancels ctx.
func (h *Handler) SetLifetime(ctx context.Context) {
	h.lifetime = ctx
}

// SetRateLimit replaces the per-client limit on mutating routes.
func (h *Handler) SetRateLimit(perSec float64, burst int) {
	h.limiter = newIPLimiter(perSec, burst)
}

// InitRoutes builds and returns the Gin router with all routes registered.
// While the setup portal is up every foreign host is redirected to it.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.captiveRedirect)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)
	router.GET("/favicon.ico", noContent)
	router.GET("/", h.index)

	h.registerSetupRoutes(router)
	h.registerControlRoutes(router)
	h.registerAPIRoutes(router)

	// Status stream (HTTP upgrade) on the same port
	router.GET("/ws", h.requireProvisioned, h.wsConnect)

	router.NoRoute(h.notFound)
	return router
}

func (h *Handler) registerSetupRoutes(r *gin.Engine) {
	for _, p := range captiveProbePaths {
		r.GET(p, h.captiveProbe)
	}
	r.POST("/connect", h.requireSetup, h.rateLimit, h.connect)
}

func (h *Handler) registerControlRoutes(r *gin.Engine) {
	r.GET("/api", h.requireProvisioned, h.getStatus)

	mutate := r.Group("/", h.requireProvisioned, h.rateLimit)
	{
		mutate.POST("/setSchedule", h.setSchedule)
		mutate.POST("/setRunning", h.setRunning)
		mutate.POST("/reset", h.resetToFactory)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.requireProvisioned)
	{
		api.GET("/status", h.getStatus)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
