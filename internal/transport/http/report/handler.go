package report

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/presentation/http/response"
	"github.com/leafyhealth/accounting-management/internal/validation"
)

var httpTracer = otel.Tracer("github.com/leafyhealth/accounting-management/transport/http/report")

// Service is the reporting behaviour the handler relies on.
type Service interface {
	ProfitLoss(ctx context.Context, q dto.RangeQuery) (*dto.ProfitLossReport, error)
	BalanceSheet(ctx context.Context, q dto.BalanceSheetQuery) (*dto.BalanceSheetReport, error)
	ExpenseSummary(ctx context.Context, q dto.RangeQuery) (*dto.ExpenseSummaryReport, error)
}

// Handler exposes financial reports over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs a report Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo group.
func Register(api *echo.Group, h *Handler) {
	g := api.Group("/reports")
	g.GET("/profit-loss", h.profitLoss)
	g.GET("/balance-sheet", h.balanceSheet)
	g.GET("/expense-summary", h.expenseSummary)
}

func (h *Handler) profitLoss(c echo.Context) error {
	b := response.New(c)

	var q dto.RangeQuery
	if err := validation.Bind(c, &q); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.profitLoss")
	defer span.End()

	report, err := h.svc.ProfitLoss(ctx, q)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(report).Build()
}

func (h *Handler) balanceSheet(c echo.Context) error {
	b := response.New(c)

	var q dto.BalanceSheetQuery
	if err := validation.Bind(c, &q); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.balanceSheet")
	defer span.End()

	report, err := h.svc.BalanceSheet(ctx, q)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(report).Build()
}

func (h *Handler) expenseSummary(c echo.Context) error {
	b := response.New(c)

	var q dto.RangeQuery
	if err := validation.Bind(c, &q); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "reports.expenseSummary")
	defer span.End()

	report, err := h.svc.ExpenseSummary(ctx, q)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(report).Build()
}
