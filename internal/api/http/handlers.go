package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/monitoring"
	"github.com/josuelopezv/GeminiT-sub000/internal/providers/terminal"
	"github.com/josuelopezv/GeminiT-sub000/internal/service"
)

// Version is reported by the health endpoints.
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	manager  *terminal.Manager
	capturer *terminal.Capturer
	registry *service.Registry
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	manager *terminal.Manager,
	capturer *terminal.Capturer,
	registry *service.Registry,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		manager:  manager,
		capturer: capturer,
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register mounts every REST route on router.
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	sessions := router.Group("/sessions")
	sessions.GET("", h.ListSessions)
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.KillSession)
	sessions.POST("/:id/input", h.WriteInput)
	sessions.POST("/:id/resize", h.Resize)
	sessions.POST("/:id/capture", h.Capture)
	sessions.GET("/:id/history", h.History)

	router.GET("/profiles", h.ListProfiles)

	services := router.Group("/services")
	services.GET("", h.ListServices)
	services.GET("/discover", h.DiscoverServices)
	services.POST("/execute", h.ExecuteService)

	router.GET("/metrics/json", h.MetricsSnapshot)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "GeminiT terminal service",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"version":          Version,
		"sessions":         h.manager.Count(),
		"service_registry": h.registry.Stats(),
	})
}

// MetricsSnapshot returns the current metric values as JSON.
func (h *Handlers) MetricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetSnapshot())
}

// statusFor maps terminal errors onto HTTP status codes.
func statusFor(err error) int {
	var spawnErr *terminal.SpawnError
	switch {
	case errors.Is(err, terminal.ErrSessionNotFound), errors.Is(err, service.ErrServiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, terminal.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, terminal.ErrProfileNotFound):
		return http.StatusBadRequest
	case errors.As(err, &spawnErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, errorBody(err))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody(err))
}

// errorBody is the envelope of every failed request. Session control
// callers branch on success alone.
func errorBody(err error) gin.H {
	return gin.H{"success": false, "error": err.Error()}
}
