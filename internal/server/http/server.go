package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/auth"
	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/database"
	"github.com/leafyhealth/accounting-management/internal/observability"
	"github.com/leafyhealth/accounting-management/internal/presentation/http/response"
	"github.com/leafyhealth/accounting-management/internal/validation"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho, NewAPIGroup),
	fx.Invoke(func(e *echo.Echo, conns *database.Connections) { RegisterReadiness(e, conns) }),
	fx.Invoke(Run),
)

// Pinger checks a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterReadiness serves /ready, answering 503 while the ledger database
// cannot be reached.
func RegisterReadiness(e *echo.Echo, db Pinger) {
	e.GET("/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return errorbank.Unavailable("ledger database unreachable", errorbank.WithCause(err))
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})
}

// NewEcho configures the Echo router with basic middleware.
func NewEcho(cfg config.Config, obs *observability.Manager, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	if cfg.HTTP.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.HTTP.BodyLimit))
	}
	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}
	e.Use(RequestLogger(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": cfg.Observability.ServiceName})
	})

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(cfg.Observability.PrometheusPath, echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

// NewAPIGroup mounts the authenticated API under the configured base path.
func NewAPIGroup(cfg config.Config, e *echo.Echo, v auth.Verifier, logger *zap.Logger) *echo.Group {
	return e.Group(cfg.HTTP.BasePath, auth.Middleware(v, cfg.Auth.SkipPaths, logger))
}

// ErrorHandler renders errors escaping handlers and middleware as envelopes.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			err = fromHTTPError(he)
		}
		appErr := errorbank.From(err)
		if appErr.Kind() == errorbank.KindInternal {
			logger.Error("http request failed", zap.Error(err), zap.String("path", c.Path()))
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.StatusCode())
			return
		}
		if buildErr := response.New(c).WithError(appErr).Build(); buildErr != nil {
			logger.Error("render error response", zap.Error(buildErr))
		}
	}
}

func fromHTTPError(he *echo.HTTPError) error {
	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		msg = m
	}
	switch he.Code {
	case http.StatusBadRequest:
		return errorbank.BadRequest(msg, errorbank.WithCause(he))
	case http.StatusUnauthorized:
		return errorbank.Unauthorized(msg, errorbank.WithCause(he))
	case http.StatusForbidden:
		return errorbank.Forbidden(msg, errorbank.WithCause(he))
	case http.StatusNotFound:
		return errorbank.NotFound(msg, errorbank.WithCause(he))
	case http.StatusRequestEntityTooLarge:
		return errorbank.TooLarge(msg, errorbank.WithCause(he))
	case http.StatusServiceUnavailable:
		return errorbank.Unavailable(msg, errorbank.WithCause(he))
	case http.StatusMethodNotAllowed, http.StatusUnsupportedMediaType:
		return errorbank.BadRequest(msg, errorbank.WithCause(he))
	default:
		return errorbank.Internal(msg, errorbank.WithCause(he))
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", res.Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if res.Status >= http.StatusInternalServerError {
				logger.Warn("http request", fields...)
			} else {
				logger.Info("http request", fields...)
			}
			return nil
		}
	}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr), zap.String("base_path", cfg.HTTP.BasePath))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			ctx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		},
	})
}
