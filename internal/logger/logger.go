// Package logger builds the zap logger shared by the API, worker and CLI.
package logger

import (
	"context"
	"errors"
	"strings"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/leafyhealth/accounting-management/internal/config"
)

// Module exposes a configured Zap logger to the Fx container.
var Module = fx.Provide(New)

// New builds the service logger and syncs it when the application stops.
func New(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	logger, err := Build(cfg.Observability)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return sync(logger) },
	})
	return logger, nil
}

// Build creates a Zap logger for the given observability settings. Unknown
// levels fall back to info; LogEncoding "console" switches to the colored
// development encoder.
func Build(obs config.Observability) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(parseLevel(obs.LogLevel))

	var zapCfg zap.Config
	switch obs.LogEncoding {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
		zapCfg.Encoding = "json"
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.MessageKey = "msg"
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
		zapCfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
		zapCfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		if level.Level() == zapcore.DebugLevel {
			zapCfg.Sampling = nil
		}
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("service", obs.ServiceName)}
	if obs.ServiceVersion != "" {
		fields = append(fields, zap.String("version", obs.ServiceVersion))
	}
	if obs.Environment != "" {
		fields = append(fields, zap.String("environment", obs.Environment))
	}
	return logger.With(fields...), nil
}

// FxEvents routes Fx lifecycle events through the service logger at debug
// level so container wiring stays out of production logs.
func FxEvents(logger *zap.Logger) fxevent.Logger {
	l := &fxevent.ZapLogger{Logger: logger.Named("fx")}
	l.UseLogLevel(zapcore.DebugLevel)
	return l
}

func parseLevel(raw string) zapcore.Level {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(strings.TrimSpace(raw))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// sync flushes buffered entries, ignoring the errors stdout and stderr
// return on terminals that cannot be fsynced.
func sync(logger *zap.Logger) error {
	err := logger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
