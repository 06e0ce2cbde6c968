package audit

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/leafyhealth/accounting-management/internal/config"
	service "github.com/leafyhealth/accounting-management/internal/service/audit"
)

// Module wires HTTP audit log handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service, cfg config.Config) *Handler {
		return NewHandler(svc, cfg.Pagination)
	}),
	fx.Invoke(func(api *echo.Group, h *Handler) {
		Register(api, h)
	}),
)
