// Package server exposes the journal over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/aretw0/journal/pkg/core"
	"github.com/aretw0/journal/pkg/metrics"
)

// Server provides HTTP endpoints for the journal.
type Server struct {
	echo    *echo.Echo
	svc     *core.Service
	logger  *slog.Logger
	metrics *metrics.Metrics
	config  *Config
	limiter *ipLimiter
}

// Config holds HTTP server configuration.
type Config struct {
	Addr      string
	StaticDir string   // directory holding the pages, manifest and service worker
	Assets    []string // doublestar patterns served under /static
	RateRPS   float64  // POST submissions per second per client; <= 0 disables
	RateBurst int
	BodyLimit string // e.g. "64K"
}

// NewServer creates a new HTTP server.
func NewServer(svc *core.Service, logger *slog.Logger, m *metrics.Metrics, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Addr:      ":8080",
			StaticDir: "public",
			RateRPS:   5,
			RateBurst: 10,
			BodyLimit: "64K",
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		svc:     svc,
		logger:  logger,
		metrics: m,
		config:  cfg,
		limiter: newIPLimiter(cfg.RateRPS, cfg.RateBurst),
	}
	e.HTTPErrorHandler = s.handleError

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.observe)
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	api := s.echo.Group("/api")
	api.GET("/reflections", s.handleList)
	api.POST("/reflections", s.handleSubmit, s.rateLimit)
	api.GET("/state", s.handleState)

	s.registerPages()
	s.echo.GET("/static/*", s.handleAsset)
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.config.Addr, "static_dir", s.config.StaticDir)
	return s.echo.Start(s.config.Addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleError renders echo errors as {"error": message}. Anything that is not
// an *echo.HTTPError is reported as a bare 500.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		s.logger.Error("unhandled http error", "uri", c.Request().RequestURI, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, ErrorResponse{Error: msg})
	}
	if err != nil {
		s.logger.Warn("failed to write error response", "error", err)
	}
}

// observe logs each request and records it in the metrics.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		duration := time.Since(start)

		status := c.Response().Status
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}

		s.metrics.ObserveRequest(c.Request().Method, route, status, duration)
		s.logger.Debug("http request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", status,
			"duration", duration,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}
