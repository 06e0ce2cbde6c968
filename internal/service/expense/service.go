package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/auth"
	"github.com/leafyhealth/accounting-management/internal/cache"
	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/event"
	"github.com/leafyhealth/accounting-management/internal/observability"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	repo "github.com/leafyhealth/accounting-management/internal/repository/expense"
	"github.com/leafyhealth/accounting-management/internal/service/report"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/leafyhealth/accounting-management/service/expense")

// Service encapsulates business logic around expenses and their approval.
type Service struct {
	repo      repo.Store
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher event.Publisher
	metrics   *observability.Recorder
	now       func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository repo.Store
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  event.Publisher
	Metrics    *observability.Recorder `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := p.Cache
	if store == nil {
		store = cache.Noop()
	}
	return &Service{
		repo:      p.Repository,
		cache:     store,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		now:       time.Now,
	}
}

// Create records a pending expense submitted by the caller.
func (s *Service) Create(ctx context.Context, req dto.CreateExpenseRequest) (*entity.Expense, error) {
	ctx, span := serviceTracer.Start(ctx, "ExpenseService.Create", trace.WithAttributes(
		attribute.String("expense.category", req.Category),
		attribute.String("expense.amount", req.Amount.String()),
	))
	defer span.End()

	now := s.now().UTC()
	exp := &entity.Expense{
		Category:      req.Category,
		Amount:        req.Amount,
		Description:   req.Description,
		Vendor:        req.Vendor,
		PaymentMethod: req.PaymentMethod,
		ExpenseDate:   now,
		Status:        entity.ExpenseStatusPending,
		CreatedBy:     auth.Actor(ctx),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.ExpenseDate != nil && !req.ExpenseDate.IsZero() {
		exp.ExpenseDate = req.ExpenseDate.Time()
	}

	if err := s.repo.Create(ctx, exp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create expense", errorbank.WithCause(err))
	}

	s.storeInCache(ctx, exp)
	s.written(ctx, event.ActionCreated, exp.ID, exp)
	return exp, nil
}

// List returns one page of expenses matching q, newest first.
func (s *Service) List(ctx context.Context, q dto.ExpenseListQuery) ([]entity.Expense, int, error) {
	ctx, span := serviceTracer.Start(ctx, "ExpenseService.List")
	defer span.End()

	from, to := q.Bounds()
	filters := []crud.Filter{crud.Period{From: from, To: to}.Filter("expense_date")}
	if q.Status != "" {
		filters = append(filters, crud.WhereEq("status", q.Status))
	}
	if q.Category != "" {
		filters = append(filters, crud.WhereEq("category", q.Category))
	}

	items, total, err := s.repo.List(ctx, crud.ListOptions{Limit: q.Limit, Offset: q.Offset, Filter: crud.Chain(filters...)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list expenses", errorbank.WithCause(err))
	}
	return items, total, nil
}

// Get retrieves an expense by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Expense, error) {
	ctx, span := serviceTracer.Start(ctx, "ExpenseService.Get", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	if exp, err := cache.GetJSON[entity.Expense](ctx, s.cache, cacheKey(id)); err == nil {
		return exp, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("expenses cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.loadFailed(span, err)
	}

	s.storeInCache(ctx, exp)
	return exp, nil
}

// Update applies the non-nil fields of req. Setting status to paid requires
// an approved expense. The write only lands if the status is still the one
// that was read.
func (s *Service) Update(ctx context.Context, id int64, req dto.UpdateExpenseRequest) (*entity.Expense, error) {
	ctx, span := serviceTracer.Start(ctx, "ExpenseService.Update", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.loadFailed(span, err)
	}

	from := exp.Status
	columns := make([]string, 0, 8)
	if req.Category != nil {
		exp.Category = *req.Category
		columns = append(columns, "category")
	}
	if req.Amount != nil {
		exp.Amount = *req.Amount
		columns = append(columns, "amount")
	}
	if req.Description != nil {
		exp.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Vendor != nil {
		exp.Vendor = *req.Vendor
		columns = append(columns, "vendor")
	}
	if req.PaymentMethod != nil {
		exp.PaymentMethod = *req.PaymentMethod
		columns = append(columns, "payment_method")
	}
	if req.ExpenseDate != nil && !req.ExpenseDate.IsZero() {
		exp.ExpenseDate = req.ExpenseDate.Time()
		columns = append(columns, "expense_date")
	}
	if req.Status != nil && *req.Status != exp.Status {
		if *req.Status != entity.ExpenseStatusPaid || exp.Status != entity.ExpenseStatusApproved {
			return nil, errorbank.Conflict(
				fmt.Sprintf("expense cannot move from %s to %s", exp.Status, *req.Status),
				errorbank.WithDetail("status", exp.Status),
			)
		}
		exp.Status = *req.Status
		columns = append(columns, "status")
	}
	exp.UpdatedAt = s.now().UTC()
	columns = append(columns, "updated_at")

	if err := s.repo.UpdateIf(ctx, exp, "status", from, columns...); err != nil {
		return nil, s.loadFailed(span, err)
	}

	s.storeInCache(ctx, exp)
	s.written(ctx, event.ActionUpdated, exp.ID, map[string]any{"columns": columns, "expense": exp})
	return exp, nil
}

// Approve moves a pending expense to approved, recording the approver.
func (s *Service) Approve(ctx context.Context, id int64) (*entity.Expense, error) {
	return s.review(ctx, id, entity.ExpenseStatusApproved, event.ActionApproved)
}

// Reject moves a pending expense to rejected, recording the reviewer.
func (s *Service) Reject(ctx context.Context, id int64) (*entity.Expense, error) {
	return s.review(ctx, id, entity.ExpenseStatusRejected, event.ActionRejected)
}

func (s *Service) review(ctx context.Context, id int64, status, action string) (*entity.Expense, error) {
	ctx, span := serviceTracer.Start(ctx, "ExpenseService.Review", trace.WithAttributes(
		attribute.Int64("expense.id", id),
		attribute.String("expense.status", status),
	))
	defer span.End()

	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.loadFailed(span, err)
	}
	if exp.Status != entity.ExpenseStatusPending {
		return nil, errorbank.Conflict(
			fmt.Sprintf("only pending expenses can be %s", status),
			errorbank.WithDetail("status", exp.Status),
		)
	}

	exp.Status = status
	exp.ApprovedBy = auth.Actor(ctx)
	exp.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateIf(ctx, exp, "status", entity.ExpenseStatusPending, "status", "approved_by", "updated_at"); err != nil {
		return nil, s.loadFailed(span, err)
	}

	s.storeInCache(ctx, exp)
	s.written(ctx, action, exp.ID, map[string]any{"status": exp.Status, "approved_by": exp.ApprovedBy})
	return exp, nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "ExpenseService.Delete", trace.WithAttributes(attribute.Int64("expense.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.loadFailed(span, err)
	}

	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("expenses cache evict failed", zap.Int64("id", id), zap.Error(err))
	}
	s.written(ctx, event.ActionDeleted, id, nil)
	return nil
}

func (s *Service) loadFailed(span trace.Span, err error) error {
	if errors.Is(err, crud.ErrNotFound) {
		return errorbank.NotFound("expense not found")
	}
	if errors.Is(err, crud.ErrStale) {
		return errorbank.Conflict("expense status changed concurrently; reload and retry")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal("expense repository failure", errorbank.WithCause(err))
}

func (s *Service) storeInCache(ctx context.Context, exp *entity.Expense) {
	if err := cache.SetJSON(ctx, s.cache, cacheKey(exp.ID), exp, s.cacheTTL); err != nil {
		s.logger.Warn("expenses cache write failed", zap.Int64("id", exp.ID), zap.Error(err))
	}
}

func (s *Service) written(ctx context.Context, action string, id int64, payload any) {
	if err := report.Invalidate(ctx, s.cache); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
	s.metrics.Write(ctx, event.EntityExpense, action)
	if s.publisher != nil {
		s.publisher.Publish(ctx, event.EntityExpense, action, id, payload)
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("expenses:%d", id)
}
