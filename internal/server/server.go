package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-rag-app/internal/config"
	"github.com/vzahanych/weather-rag-app/internal/server/handlers"
	"github.com/vzahanych/weather-rag-app/internal/server/middlewares"
	"github.com/vzahanych/weather-rag-app/internal/server/web"
	"github.com/vzahanych/weather-rag-app/pkg/telemetry"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer needs. Index is nil when
// retrieval is disabled.
type Deps struct {
	Predictor handlers.Predictor
	Index     handlers.IndexStatus
	Info      handlers.InfoResponse
}

type Server struct {
	engine *gin.Engine
	server *http.Server
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

func NewServer(cfg config.ServerConfig, deps Deps, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(middlewares.NewMetricsMiddleware(logger, tele).Handler())

	s := &Server{
		engine: engine,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      engine,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		},
		logger: logger,
		tele:   tele,
	}
	s.setupRoutes(deps)

	return s
}

func (s *Server) setupRoutes(deps Deps) {
	info := deps.Info
	info.Endpoints = []string{"GET /static/", "POST /predict", "GET /health", "GET /health/live", "GET /health/ready", "GET /metrics"}
	s.engine.GET("/", handlers.NewInfoHandler(info, web.IndexPage()).Info)
	s.engine.StaticFS("/static", web.Assets())

	// Business endpoints
	s.engine.POST("/predict", handlers.NewPredictHandler(deps.Predictor, s.logger).Predict)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, deps.Index)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", handlers.NewMetricsHandler(s.logger).ServeMetrics)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the server stops. A clean Shutdown is not an error, and
// Start after Shutdown returns immediately.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
