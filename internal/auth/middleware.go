package auth

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/presentation/http/response"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

// Middleware requires a valid bearer token on every request except those whose
// path starts with one of skipPaths. A nil verifier disables authentication.
func Middleware(v Verifier, skipPaths []string, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if v == nil || skipped(c.Request().URL.Path, skipPaths) {
				return next(c)
			}

			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return response.New(c).WithError(errorbank.Unauthorized("missing bearer token")).Build()
			}

			principal, err := v.Verify(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					return response.New(c).WithError(errorbank.Unauthorized("invalid or expired token")).Build()
				}
				logger.Error("token verification failed", zap.Error(err))
				return response.New(c).WithError(errorbank.Unauthorized("unable to verify token", errorbank.WithCause(err))).Build()
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithPrincipal(req.Context(), principal)))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func skipped(path string, skipPaths []string) bool {
	for _, p := range skipPaths {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
