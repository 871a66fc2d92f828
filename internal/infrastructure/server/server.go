package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/josuelopezv/GeminiT-sub000/internal/api/http"
	"github.com/josuelopezv/GeminiT-sub000/internal/api/middleware"
	"github.com/josuelopezv/GeminiT-sub000/internal/api/ws"
	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/config"
	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/logging"
	"github.com/josuelopezv/GeminiT-sub000/internal/infrastructure/monitoring"
	"github.com/josuelopezv/GeminiT-sub000/internal/providers/system"
	"github.com/josuelopezv/GeminiT-sub000/internal/providers/terminal"
	"github.com/josuelopezv/GeminiT-sub000/internal/service"
	"github.com/josuelopezv/GeminiT-sub000/internal/shared/utils"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	manager  *terminal.Manager
	registry *service.Registry
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing GeminiT terminal service",
		zap.String("port", cfg.Server.Port),
		zap.String("shell", cfg.Terminal.Shell),
		zap.Duration("capture_timeout", cfg.Capture.Timeout),
	)

	metrics := monitoring.NewMetrics()

	profiles, err := terminal.LoadProfiles(cfg.Terminal.ProfilesPath)
	if err != nil {
		return nil, err
	}
	if len(profiles) > 0 {
		logger.Info("Shell profiles loaded",
			zap.String("path", cfg.Terminal.ProfilesPath),
			zap.Int("count", len(profiles)),
		)
	}

	manager := terminal.NewManager(terminal.Options{
		DefaultShell: cfg.Terminal.Shell,
		Cols:         cfg.Terminal.Cols,
		Rows:         cfg.Terminal.Rows,
		HistorySize:  cfg.Terminal.HistoryBytes,
		Profiles:     profiles,
		Logger:       logger.Logger,
	}).WithMetrics(metrics)

	capturer := terminal.NewCapturer(manager, cfg.Capture.Timeout, logger.Logger).WithMetrics(metrics)

	registry := service.NewRegistry().WithLogger(logger.Logger).WithMetrics(metrics)
	if err := registry.Register(terminal.NewProvider(manager, capturer)); err != nil {
		return nil, fmt.Errorf("failed to register terminal provider: %w", err)
	}
	if err := registry.Register(system.NewProvider(manager.Count, manager.DefaultShell())); err != nil {
		return nil, fmt.Errorf("failed to register system provider: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger.Logger))
	router.Use(middleware.Logger(logger.Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.BodyLimit(utils.MaxJSONSize))
	router.Use(middleware.CORS(middleware.CORSConfigForOrigins(cfg.Server.CORSOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(manager, capturer, registry, metrics, logger.Logger)
	handlers.Register(router)

	wsHandler := ws.NewHandler(manager, metrics, logger, ws.Options{
		SendBuffer:     cfg.Stream.SendBuffer,
		AllowedOrigins: cfg.Server.CORSOrigins,
	})
	router.GET("/sessions/:id/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		manager:  manager,
		registry: registry,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Server.Host + ":" + s.config.Server.Port
}

// Run starts the HTTP server and blocks until it stops. It returns nil
// after a graceful Shutdown.
func (s *Server) Run() error {
	s.http = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", s.Addr()))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, terminates every session and flushes
// the logger. Open WebSocket streams end when their sessions are killed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var err error
	if s.http != nil {
		if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(shutdownErr))
			err = fmt.Errorf("http shutdown: %w", shutdownErr)
		}
	}

	s.manager.KillAll()

	// Sync fails on stdout for some platforms; nothing useful to do about it.
	_ = s.logger.Sync()

	return err
}
