package expense

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/presentation/http/request"
	"github.com/leafyhealth/accounting-management/internal/presentation/http/response"
	"github.com/leafyhealth/accounting-management/internal/validation"
)

var httpTracer = otel.Tracer("github.com/leafyhealth/accounting-management/transport/http/expense")

// Service is the expense behaviour the handler relies on.
type Service interface {
	Create(ctx context.Context, req dto.CreateExpenseRequest) (*entity.Expense, error)
	List(ctx context.Context, q dto.ExpenseListQuery) ([]entity.Expense, int, error)
	Get(ctx context.Context, id int64) (*entity.Expense, error)
	Update(ctx context.Context, id int64, req dto.UpdateExpenseRequest) (*entity.Expense, error)
	Approve(ctx context.Context, id int64) (*entity.Expense, error)
	Reject(ctx context.Context, id int64) (*entity.Expense, error)
	Delete(ctx context.Context, id int64) error
}

// Handler exposes expense endpoints over HTTP.
type Handler struct {
	svc  Service
	page config.Pagination
}

// NewHandler constructs an expense Handler.
func NewHandler(svc Service, page config.Pagination) *Handler {
	return &Handler{svc: svc, page: page}
}

// Register routes with provided Echo group.
func Register(api *echo.Group, h *Handler) {
	g := api.Group("/expenses")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/approve", h.approve)
	g.POST("/:id/reject", h.reject)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateExpenseRequest
	if err := validation.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.create", trace.WithAttributes(
		attribute.String("expense.category", req.Category),
	))
	defer span.End()

	exp, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewExpenseResponse(exp)).WithMessage("expense created").Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	var q dto.ExpenseListQuery
	if err := validation.Bind(c, &q); err != nil {
		return b.WithError(err).Build()
	}
	q.Limit, q.Offset = q.Page(h.page.DefaultLimit, h.page.MaxLimit)

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.list")
	defer span.End()

	items, total, err := h.svc.List(ctx, q)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewExpenseResponses(items)).WithPagination(total, q.Limit, q.Offset).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.getByID", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	exp, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewExpenseResponse(exp)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.UpdateExpenseRequest
	if err := validation.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.update", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	exp, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewExpenseResponse(exp)).WithMessage("expense updated").Build()
}

func (h *Handler) approve(c echo.Context) error {
	return h.review(c, "expenses.approve", "expense approved", h.svc.Approve)
}

func (h *Handler) reject(c echo.Context) error {
	return h.review(c, "expenses.reject", "expense rejected", h.svc.Reject)
}

func (h *Handler) review(c echo.Context, op, message string, fn func(context.Context, int64) (*entity.Expense, error)) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), op, trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	exp, err := fn(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewExpenseResponse(exp)).WithMessage(message).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "expenses.delete", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("expense deleted").Build()
}
