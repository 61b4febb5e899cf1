package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/numzy/receipt-processor/internal/audit"
	"github.com/numzy/receipt-processor/internal/common"
	"github.com/numzy/receipt-processor/internal/observability/metrics"
)

const serviceName = "receipt-processor"

// Server holds the Echo app and the processing pipeline.
type Server struct {
	Echo    *echo.Echo
	cfg     common.ServerConfig
	handler *Handler
	logger  *slog.Logger
}

// New builds the Echo server and registers routes.
func New(cfg common.ServerConfig, proc Processor, rules audit.Rules, m *metrics.PipelineMetrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	if cfg.MaxUploadBytes > 0 {
		// multipart overhead on top of the file itself
		e.Use(middleware.BodyLimit(fmt.Sprintf("%d", cfg.MaxUploadBytes+64*1024)))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(requestID(logger))
	if m != nil {
		e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
			return m.Middleware(serviceName, next)
		}))
	}

	h := NewHandler(proc, rules, cfg.MaxUploadBytes, logger)

	e.GET("/api", h.Index)
	e.GET("/api/health", h.Health)
	e.POST("/api/process-receipt", h.ProcessReceipt)
	e.POST("/api/validate-receipt", h.ValidateReceipt)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	return &Server{Echo: e, cfg: cfg, handler: h, logger: logger}
}

// Start blocks until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		if err := s.Echo.Shutdown(context.Background()); err != nil {
			s.logger.Error("server.shutdown.failed", "error", err)
		}
	}()
	s.logger.Info("server.listening", "addr", s.cfg.HTTPAddr)
	err := s.Echo.Start(s.cfg.HTTPAddr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// requestID attaches a request-scoped id to the context and echoes it back
// in the response headers.
func requestID(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			ctx := common.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}
