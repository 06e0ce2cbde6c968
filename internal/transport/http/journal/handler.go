package journal

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

var httpTracer = otel.Tracer("github.com/leafyhealth/accounting-management/transport/http/journal")

// Service is the journal entry behaviour the handler relies on.
type Service interface {
	Create(ctx context.Context, req dto.CreateJournalEntryRequest) (*entity.JournalEntry, error)
	List(ctx context.Context, q dto.JournalListQuery) ([]entity.JournalEntry, int, error)
	Get(ctx context.Context, id int64) (*entity.JournalEntry, error)
	Post(ctx context.Context, id int64) (*entity.JournalEntry, error)
	Delete(ctx context.Context, id int64) error
}

// Handler exposes journal entry endpoints over HTTP.
type Handler struct {
	svc  Service
	page config.Pagination
}

// NewHandler constructs a journal entry Handler.
func NewHandler(svc Service, page config.Pagination) *Handler {
	return &Handler{svc: svc, page: page}
}

// Register routes with provided Echo group.
func Register(api *echo.Group, h *Handler) {
	g := api.Group("/journal-entries")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("/:id/post", h.post)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateJournalEntryRequest
	if err := validation.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "journal_entries.create", trace.WithAttributes(
		attribute.Int("journal_entry.lines", len(req.Lines)),
	))
	defer span.End()

	entry, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewJournalEntryResponse(entry)).WithMessage("journal entry created").Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	var q dto.JournalListQuery
	if err := validation.Bind(c, &q); err != nil {
		return b.WithError(err).Build()
	}
	q.Limit, q.Offset = q.Page(h.page.DefaultLimit, h.page.MaxLimit)

	ctx, span := httpTracer.Start(c.Request().Context(), "journal_entries.list")
	defer span.End()

	items, total, err := h.svc.List(ctx, q)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewJournalEntryResponses(items)).WithPagination(total, q.Limit, q.Offset).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "journal_entries.getByID", trace.WithAttributes(attribute.Int64("journal_entry.id", id)))
	defer span.End()

	entry, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewJournalEntryResponse(entry)).Build()
}

func (h *Handler) post(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "journal_entries.post", trace.WithAttributes(attribute.Int64("journal_entry.id", id)))
	defer span.End()

	entry, err := h.svc.Post(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewJournalEntryResponse(entry)).WithMessage("journal entry posted").Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "journal_entries.delete", trace.WithAttributes(attribute.Int64("journal_entry.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithMessage("journal entry deleted").Build()
}
