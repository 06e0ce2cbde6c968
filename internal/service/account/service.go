package account

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

	"github.com/leafyhealth/accounting-management/internal/cache"
	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/event"
	"github.com/leafyhealth/accounting-management/internal/observability"
	repo "github.com/leafyhealth/accounting-management/internal/repository/account"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/leafyhealth/accounting-management/service/account")

// Service encapsulates business logic around the chart of accounts.
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

// Create adds an account after checking code uniqueness and the parent link.
func (s *Service) Create(ctx context.Context, req dto.CreateAccountRequest) (*entity.Account, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Create", trace.WithAttributes(attribute.String("account.code", req.Code)))
	defer span.End()

	if err := s.ensureCodeFree(ctx, req.Code, 0); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		if err := s.ensureParent(ctx, *req.ParentID, 0); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	acc := &entity.Account{
		Code:        req.Code,
		Name:        req.Name,
		Type:        req.Type,
		ParentID:    req.ParentID,
		Description: req.Description,
		Status:      req.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if acc.Status == "" {
		acc.Status = entity.StatusActive
	}

	if err := s.repo.Create(ctx, acc); err != nil {
		if crud.IsUniqueViolation(err) {
			return nil, errorbank.Conflict("account code already exists", errorbank.WithDetail("code", req.Code))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create account", errorbank.WithCause(err))
	}

	s.storeInCache(ctx, acc)
	s.written(ctx, event.ActionCreated, acc.ID, acc)
	return acc, nil
}

// List returns one page of accounts matching q.
func (s *Service) List(ctx context.Context, q dto.AccountListQuery) ([]entity.Account, int, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.List")
	defer span.End()

	filters := make([]crud.Filter, 0, 3)
	if q.Type != "" {
		filters = append(filters, crud.WhereEq("type", q.Type))
	}
	if q.Status != "" {
		filters = append(filters, crud.WhereEq("status", q.Status))
	}
	if q.ParentID != nil {
		filters = append(filters, crud.WhereEq("parent_id", *q.ParentID))
	}

	items, total, err := s.repo.List(ctx, crud.ListOptions{Limit: q.Limit, Offset: q.Offset, Filter: crud.Chain(filters...)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list accounts", errorbank.WithCause(err))
	}
	return items, total, nil
}

// Get retrieves an account by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Account, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Get", trace.WithAttributes(attribute.Int64("account.id", id)))
	defer span.End()

	if acc, err := cache.GetJSON[entity.Account](ctx, s.cache, cacheKey(id)); err == nil {
		return acc, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("accounts cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.loadFailed(span, err)
	}

	s.storeInCache(ctx, acc)
	return acc, nil
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, id int64, req dto.UpdateAccountRequest) (*entity.Account, error) {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Update", trace.WithAttributes(attribute.Int64("account.id", id)))
	defer span.End()

	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.loadFailed(span, err)
	}

	columns := make([]string, 0, 7)
	if req.Code != nil && *req.Code != acc.Code {
		if err := s.ensureCodeFree(ctx, *req.Code, id); err != nil {
			return nil, err
		}
		acc.Code = *req.Code
		columns = append(columns, "code")
	}
	if req.Name != nil {
		acc.Name = *req.Name
		columns = append(columns, "name")
	}
	if req.Type != nil {
		acc.Type = *req.Type
		columns = append(columns, "type")
	}
	if req.ParentID != nil {
		if err := s.ensureParent(ctx, *req.ParentID, id); err != nil {
			return nil, err
		}
		acc.ParentID = req.ParentID
		columns = append(columns, "parent_id")
	}
	if req.Description != nil {
		acc.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.Status != nil {
		acc.Status = *req.Status
		columns = append(columns, "status")
	}
	acc.UpdatedAt = s.now().UTC()
	columns = append(columns, "updated_at")

	if err := s.repo.Update(ctx, acc, columns...); err != nil {
		return nil, s.loadFailed(span, err)
	}

	s.storeInCache(ctx, acc)
	s.written(ctx, event.ActionUpdated, acc.ID, map[string]any{"columns": columns, "account": acc})
	return acc, nil
}

// Delete removes an account that has no children and no journal lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "AccountService.Delete", trace.WithAttributes(attribute.Int64("account.id", id)))
	defer span.End()

	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return s.loadFailed(span, err)
	}
	if hasChildren {
		return errorbank.Conflict("account has child accounts", errorbank.WithDetail("id", id))
	}
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return s.loadFailed(span, err)
	}
	if referenced {
		return errorbank.Conflict("account is referenced by journal lines", errorbank.WithDetail("id", id))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.loadFailed(span, err)
	}

	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("accounts cache evict failed", zap.Int64("id", id), zap.Error(err))
	}
	s.written(ctx, event.ActionDeleted, id, nil)
	return nil
}

func (s *Service) ensureCodeFree(ctx context.Context, code string, self int64) error {
	existing, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, crud.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errorbank.Internal("failed to check account code", errorbank.WithCause(err))
	}
	if existing.ID != self {
		return errorbank.Conflict("account code already exists", errorbank.WithDetail("code", code))
	}
	return nil
}

func (s *Service) ensureParent(ctx context.Context, parentID, self int64) error {
	if parentID == self {
		return errorbank.Unprocessable("account cannot be its own parent")
	}
	if _, err := s.repo.GetByID(ctx, parentID); err != nil {
		if errors.Is(err, crud.ErrNotFound) {
			return errorbank.Unprocessable("parent account not found", errorbank.WithDetail("parent_id", parentID))
		}
		return errorbank.Internal("failed to load parent account", errorbank.WithCause(err))
	}
	return nil
}

func (s *Service) loadFailed(span trace.Span, err error) error {
	if errors.Is(err, crud.ErrNotFound) {
		return errorbank.NotFound("account not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal("account repository failure", errorbank.WithCause(err))
}

func (s *Service) storeInCache(ctx context.Context, acc *entity.Account) {
	if err := cache.SetJSON(ctx, s.cache, cacheKey(acc.ID), acc, s.cacheTTL); err != nil {
		s.logger.Warn("accounts cache write failed", zap.Int64("id", acc.ID), zap.Error(err))
	}
}

func (s *Service) written(ctx context.Context, action string, id int64, payload any) {
	s.metrics.Write(ctx, event.EntityAccount, action)
	if s.publisher != nil {
		s.publisher.Publish(ctx, event.EntityAccount, action, id, payload)
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("accounts:%d", id)
}
