package report

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	service "github.com/leafyhealth/accounting-management/internal/service/report"
)

// Module wires HTTP report handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service) *Handler {
		return NewHandler(svc)
	}),
	fx.Invoke(func(api *echo.Group, h *Handler) {
		Register(api, h)
	}),
)
