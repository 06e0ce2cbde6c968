package audit

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/presentation/http/response"
	"github.com/leafyhealth/accounting-management/internal/validation"
)

var httpTracer = otel.Tracer("github.com/leafyhealth/accounting-management/transport/http/audit")

// Service lists recorded audit logs.
type Service interface {
	List(ctx context.Context, q dto.AuditListQuery) ([]entity.AuditLog, int, error)
}

// Handler exposes the audit trail over HTTP.
type Handler struct {
	svc  Service
	page config.Pagination
}

// NewHandler constructs an audit Handler.
func NewHandler(svc Service, page config.Pagination) *Handler {
	return &Handler{svc: svc, page: page}
}

// Register routes with provided Echo group.
func Register(api *echo.Group, h *Handler) {
	api.GET("/audit-logs", h.list)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	var q dto.AuditListQuery
	if err := validation.Bind(c, &q); err != nil {
		return b.WithError(err).Build()
	}
	q.Limit, q.Offset = q.Page(h.page.DefaultLimit, h.page.MaxLimit)

	ctx, span := httpTracer.Start(c.Request().Context(), "audit_logs.list")
	defer span.End()

	items, total, err := h.svc.List(ctx, q)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewAuditLogResponses(items)).WithPagination(total, q.Limit, q.Offset).Build()
}
