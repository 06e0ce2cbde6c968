package transaction

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

var httpTracer = otel.Tracer("github.com/leafyhealth/accounting-management/transport/http/transaction")

// Service is the transaction behaviour the handler relies on.
type Service interface {
	Create(ctx context.Context, req dto.CreateTransactionRequest) (*entity.Transaction, error)
	List(ctx context.Context, q dto.TransactionListQuery) ([]entity.Transaction, int, error)
	Get(ctx context.Context, id int64) (*entity.Transaction, error)
	Update(ctx context.Context, id int64, req dto.UpdateTransactionRequest) (*entity.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// Handler exposes transaction endpoints over HTTP.
type Handler struct {
	svc  Service
	page config.Pagination
}

// NewHandler constructs a transaction Handler.
func NewHandler(svc Service, page config.Pagination) *Handler {
	return &Handler{svc: svc, page: page}
}

// Register routes with provided Echo group.
func Register(api *echo.Group, h *Handler) {
	g := api.Group("/transactions")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateTransactionRequest
	if err := validation.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "transactions.create", trace.WithAttributes(
		attribute.String("transaction.type", string(req.Type)),
		attribute.String("transaction.amount", req.Amount.String()),
	))
	defer span.End()

	tx, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewTransactionResponse(tx)).WithMessage("transaction created").Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	var q dto.TransactionListQuery
	if err := validation.Bind(c, &q); err != nil {
		return b.WithError(err).Build()
	}
	q.Limit, q.Offset = q.Page(h.page.DefaultLimit, h.page.MaxLimit)

	ctx, span := httpTracer.Start(c.Request().Context(), "transactions.list")
	defer span.End()

	items, total, err := h.svc.List(ctx, q)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTransactionResponses(items)).WithPagination(total, q.Limit, q.Offset).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "transactions.getByID", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	tx, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTransactionResponse(tx)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.UpdateTransactionRequest
	if err := validation.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "transactions.update", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	tx, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewTransactionResponse(tx)).WithMessage("transaction updated").Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "transactions.delete", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("transaction deleted").Build()
}
