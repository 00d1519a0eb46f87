// Package server exposes the orchestrator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/logging"
	"github.com/ShayCichocki/toolroute/pkg/models"
)

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = ":8080"

const shutdownTimeout = 10 * time.Second

// Runner is the part of the orchestrator the server drives.
type Runner interface {
	GetChoiceData(ctx context.Context, task string) (*models.ChoiceData, error)
	Run(ctx context.Context, task string, payload *models.ResolutionPayload) (*models.FinalMessage, error)
}

// Catalog lists providers for GET /providers.
type Catalog interface {
	List(ctx context.Context) []models.ProviderDescriptor
	OperationCount(ctx context.Context, id string) int
}

// Config configures a Server.
type Config struct {
	Addr string
	// Gatherer backs GET /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
	Version  string
}

// Server is the gin HTTP surface.
type Server struct {
	router  *gin.Engine
	runner  Runner
	catalog Catalog
	cfg     Config
	logger  *zap.Logger
}

// New creates a Server and registers its routes.
func New(runner Runner, catalog Catalog, cfg Config, logger *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router:  gin.New(),
		runner:  runner,
		catalog: catalog,
		cfg:     cfg,
		logger:  logging.OrNop(logger),
	}
	s.router.Use(gin.Recovery(), requestLogger(s.logger))

	s.router.GET("/health", s.health)
	s.router.GET("/providers", s.listProviders)
	s.router.POST("/choices", s.choices)
	s.router.POST("/run", s.run)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
