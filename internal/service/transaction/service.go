package transaction

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
	accountrepo "github.com/leafyhealth/accounting-management/internal/repository/account"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	repo "github.com/leafyhealth/accounting-management/internal/repository/transaction"
	"github.com/leafyhealth/accounting-management/internal/service/report"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/leafyhealth/accounting-management/service/transaction")

// Service encapsulates business logic around ledger transactions.
type Service struct {
	repo      repo.Store
	accounts  accountrepo.Store
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
	Accounts   accountrepo.Store
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
		accounts:  p.Accounts,
		cache:     store,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		now:       time.Now,
	}
}

// Create records a transaction. Status defaults to completed and the
// transaction date to now.
func (s *Service) Create(ctx context.Context, req dto.CreateTransactionRequest) (*entity.Transaction, error) {
	ctx, span := serviceTracer.Start(ctx, "TransactionService.Create", trace.WithAttributes(
		attribute.String("transaction.type", string(req.Type)),
		attribute.String("transaction.amount", req.Amount.String()),
	))
	defer span.End()

	if req.AccountID != nil {
		if err := s.ensureAccount(ctx, *req.AccountID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	tx := &entity.Transaction{
		Type:            req.Type,
		Category:        req.Category,
		Amount:          req.Amount,
		Description:     req.Description,
		Reference:       req.Reference,
		AccountID:       req.AccountID,
		TransactionDate: now,
		Status:          req.Status,
		CreatedBy:       auth.Actor(ctx),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.TransactionDate != nil && !req.TransactionDate.IsZero() {
		tx.TransactionDate = req.TransactionDate.Time()
	}
	if tx.Status == "" {
		tx.Status = entity.TransactionStatusCompleted
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create transaction", errorbank.WithCause(err))
	}

	s.storeInCache(ctx, tx)
	s.written(ctx, event.ActionCreated, tx.ID, tx)
	return tx, nil
}

// List returns one page of transactions matching q, newest first.
func (s *Service) List(ctx context.Context, q dto.TransactionListQuery) ([]entity.Transaction, int, error) {
	ctx, span := serviceTracer.Start(ctx, "TransactionService.List")
	defer span.End()

	from, to := q.Bounds()
	filters := []crud.Filter{crud.Period{From: from, To: to}.Filter("transaction_date")}
	if q.Type != "" {
		filters = append(filters, crud.WhereEq("type", q.Type))
	}
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
		return nil, 0, errorbank.Internal("failed to list transactions", errorbank.WithCause(err))
	}
	return items, total, nil
}

// Get retrieves a transaction by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Transaction, error) {
	ctx, span := serviceTracer.Start(ctx, "TransactionService.Get", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	if tx, err := cache.GetJSON[entity.Transaction](ctx, s.cache, cacheKey(id)); err == nil {
		return tx, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("transactions cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.loadFailed(span, err)
	}

	s.storeInCache(ctx, tx)
	return tx, nil
}

// Update applies the non-nil fields of req and refreshes updated_at.
func (s *Service) Update(ctx context.Context, id int64, req dto.UpdateTransactionRequest) (*entity.Transaction, error) {
	ctx, span := serviceTracer.Start(ctx, "TransactionService.Update", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.loadFailed(span, err)
	}

	columns := make([]string, 0, 9)
	if req.Type != nil {
		tx.Type = *req.Type
		columns = append(columns, "type")
	}
	if req.Category != nil {
		tx.Category = *req.Category
		columns = append(columns, "category")
	}
	if req.Amount != nil {
		tx.Amount = *req.Amount
		columns = append(columns, "amount")
	}
	if req.Description != nil {
		tx.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Reference != nil {
		tx.Reference = *req.Reference
		columns = append(columns, "reference")
	}
	if req.AccountID != nil {
		if err := s.ensureAccount(ctx, *req.AccountID); err != nil {
			return nil, err
		}
		tx.AccountID = req.AccountID
		columns = append(columns, "account_id")
	}
	if req.TransactionDate != nil && !req.TransactionDate.IsZero() {
		tx.TransactionDate = req.TransactionDate.Time()
		columns = append(columns, "transaction_date")
	}
	if req.Status != nil {
		tx.Status = *req.Status
		columns = append(columns, "status")
	}
	tx.UpdatedAt = s.now().UTC()
	columns = append(columns, "updated_at")

	if err := s.repo.Update(ctx, tx, columns...); err != nil {
		return nil, s.loadFailed(span, err)
	}

	s.storeInCache(ctx, tx)
	s.written(ctx, event.ActionUpdated, tx.ID, map[string]any{"columns": columns, "transaction": tx})
	return tx, nil
}

// Delete removes a transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "TransactionService.Delete", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.loadFailed(span, err)
	}

	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("transactions cache evict failed", zap.Int64("id", id), zap.Error(err))
	}
	s.written(ctx, event.ActionDeleted, id, nil)
	return nil
}

func (s *Service) ensureAccount(ctx context.Context, id int64) error {
	if s.accounts == nil {
		return nil
	}
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, crud.ErrNotFound) {
			return errorbank.Unprocessable("account not found", errorbank.WithDetail("account_id", id))
		}
		return errorbank.Internal("failed to load account", errorbank.WithCause(err))
	}
	return nil
}

func (s *Service) loadFailed(span trace.Span, err error) error {
	if errors.Is(err, crud.ErrNotFound) {
		return errorbank.NotFound("transaction not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal("transaction repository failure", errorbank.WithCause(err))
}

func (s *Service) storeInCache(ctx context.Context, tx *entity.Transaction) {
	if err := cache.SetJSON(ctx, s.cache, cacheKey(tx.ID), tx, s.cacheTTL); err != nil {
		s.logger.Warn("transactions cache write failed", zap.Int64("id", tx.ID), zap.Error(err))
	}
}

// written invalidates report caches and emits the write event.
func (s *Service) written(ctx context.Context, action string, id int64, payload any) {
	if err := report.Invalidate(ctx, s.cache); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
	s.metrics.Write(ctx, event.EntityTransaction, action)
	if s.publisher != nil {
		s.publisher.Publish(ctx, event.EntityTransaction, action, id, payload)
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("transactions:%d", id)
}
