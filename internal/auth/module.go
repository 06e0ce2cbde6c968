package auth

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/cache"
	"github.com/leafyhealth/accounting-management/internal/config"
)

// Module provides the configured Verifier.
var Module = fx.Provide(NewVerifier)

// NewVerifier selects the verifier for cfg.Auth.Mode. The none mode yields a
// nil Verifier, which Middleware treats as authentication disabled.
func NewVerifier(cfg config.Config, store cache.Store, logger *zap.Logger) (Verifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeNone:
		logger.Warn("authentication disabled")
		return nil, nil
	case config.AuthModeJWT:
		return NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
	case config.AuthModeRemote:
		return NewRemoteVerifier(cfg.Auth.ServiceURL, cfg.Auth.Timeout, store, cfg.Auth.CacheTTL, logger), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}
}
