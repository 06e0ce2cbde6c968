package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	repo "github.com/leafyhealth/accounting-management/internal/repository/journal"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/leafyhealth/accounting-management/service/journal")

const minLines = 2

// Service encapsulates double-entry journal rules.
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

// Balance checks the double-entry rules: at least two lines, each line
// carrying exactly one positive side in whole cents, and equal debit and
// credit totals.
func Balance(lines []dto.JournalLineRequest) (debits, credits decimal.Decimal, err error) {
	debits, credits = decimal.Zero, decimal.Zero
	if len(lines) < minLines {
		return debits, credits, errorbank.Unprocessable(
			fmt.Sprintf("journal entry needs at least %d lines", minLines),
			errorbank.WithDetail("lines", len(lines)),
		)
	}
	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() || l.Debit.IsPositive() == l.Credit.IsPositive() {
			return debits, credits, errorbank.Unprocessable(
				"each line must have either a debit or a credit",
				errorbank.WithDetail("line", i),
			)
		}
		if !dto.IsMoney(l.Debit) || !dto.IsMoney(l.Credit) {
			return debits, credits, errorbank.Unprocessable(
				"amounts must have at most 2 decimal places and be below 1000000000000",
				errorbank.WithDetail("line", i),
			)
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if !debits.Equal(credits) {
		return debits, credits, errorbank.Unprocessable("journal entry is not balanced", errorbank.WithDetails(map[string]any{
			"total_debit":  debits.String(),
			"total_credit": credits.String(),
		}))
	}
	return debits, credits, nil
}

// Create stores a balanced draft entry with its lines.
func (s *Service) Create(ctx context.Context, req dto.CreateJournalEntryRequest) (*entity.JournalEntry, error) {
	ctx, span := serviceTracer.Start(ctx, "JournalService.Create", trace.WithAttributes(attribute.Int("journal.lines", len(req.Lines))))
	defer span.End()

	debits, _, err := Balance(req.Lines)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAccounts(ctx, req.Lines); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := &entity.JournalEntry{
		EntryNumber: req.EntryNumber,
		Description: req.Description,
		EntryDate:   now,
		Status:      entity.JournalStatusDraft,
		CreatedBy:   auth.Actor(ctx),
		CreatedAt:   now,
		UpdatedAt:   now,
		Lines:       make([]*entity.JournalLine, 0, len(req.Lines)),
	}
	if req.EntryDate != nil && !req.EntryDate.IsZero() {
		entry.EntryDate = req.EntryDate.Time()
	}
	if entry.EntryNumber == "" {
		entry.EntryNumber = entryNumber(entry.EntryDate)
	}
	for _, l := range req.Lines {
		entry.Lines = append(entry.Lines, &entity.JournalLine{
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Memo:      l.Memo,
		})
	}
	span.SetAttributes(attribute.String("journal.number", entry.EntryNumber), attribute.String("journal.total", debits.String()))

	if err := s.repo.Create(ctx, entry); err != nil {
		if crud.IsUniqueViolation(err) {
			return nil, errorbank.Conflict("entry number already exists", errorbank.WithDetail("entry_number", entry.EntryNumber))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create journal entry", errorbank.WithCause(err))
	}

	s.storeInCache(ctx, entry)
	s.written(ctx, event.ActionCreated, entry.ID, entry)
	return entry, nil
}

// List returns one page of entries, without lines, newest first.
func (s *Service) List(ctx context.Context, q dto.JournalListQuery) ([]entity.JournalEntry, int, error) {
	ctx, span := serviceTracer.Start(ctx, "JournalService.List")
	defer span.End()

	var filter crud.Filter
	if q.Status != "" {
		filter = crud.WhereEq("status", q.Status)
	}
	items, total, err := s.repo.List(ctx, crud.ListOptions{Limit: q.Limit, Offset: q.Offset, Filter: filter})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list journal entries", errorbank.WithCause(err))
	}
	return items, total, nil
}

// Get retrieves an entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*entity.JournalEntry, error) {
	ctx, span := serviceTracer.Start(ctx, "JournalService.Get", trace.WithAttributes(attribute.Int64("journal.id", id)))
	defer span.End()

	if entry, err := cache.GetJSON[entity.JournalEntry](ctx, s.cache, cacheKey(id)); err == nil {
		return entry, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("journal cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.failed(span, err)
	}
	s.storeInCache(ctx, entry)
	return entry, nil
}

// Post moves a draft entry to posted.
func (s *Service) Post(ctx context.Context, id int64) (*entity.JournalEntry, error) {
	ctx, span := serviceTracer.Start(ctx, "JournalService.Post", trace.WithAttributes(attribute.Int64("journal.id", id)))
	defer span.End()

	entry, err := s.repo.Post(ctx, id, s.now().UTC())
	if err != nil {
		return nil, s.failed(span, err)
	}

	s.storeInCache(ctx, entry)
	s.written(ctx, event.ActionPosted, entry.ID, map[string]any{"entry_number": entry.EntryNumber, "posted_at": entry.PostedAt})
	return entry, nil
}

// Delete removes a draft entry and its lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "JournalService.Delete", trace.WithAttributes(attribute.Int64("journal.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.failed(span, err)
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("journal cache evict failed", zap.Int64("id", id), zap.Error(err))
	}
	s.written(ctx, event.ActionDeleted, id, nil)
	return nil
}

func (s *Service) ensureAccounts(ctx context.Context, lines []dto.JournalLineRequest) error {
	if s.accounts == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		if _, err := s.accounts.GetByID(ctx, l.AccountID); err != nil {
			if errors.Is(err, crud.ErrNotFound) {
				return errorbank.Unprocessable("account not found", errorbank.WithDetail("account_id", l.AccountID))
			}
			return errorbank.Internal("failed to load account", errorbank.WithCause(err))
		}
	}
	return nil
}

func (s *Service) failed(span trace.Span, err error) error {
	switch {
	case errors.Is(err, crud.ErrNotFound):
		return errorbank.NotFound("journal entry not found")
	case errors.Is(err, repo.ErrNotDraft):
		return errorbank.Conflict("journal entry is already posted")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	return errorbank.Internal("journal repository failure", errorbank.WithCause(err))
}

func (s *Service) storeInCache(ctx context.Context, entry *entity.JournalEntry) {
	if err := cache.SetJSON(ctx, s.cache, cacheKey(entry.ID), entry, s.cacheTTL); err != nil {
		s.logger.Warn("journal cache write failed", zap.Int64("id", entry.ID), zap.Error(err))
	}
}

func (s *Service) written(ctx context.Context, action string, id int64, payload any) {
	s.metrics.Write(ctx, event.EntityJournalEntry, action)
	if s.publisher != nil {
		s.publisher.Publish(ctx, event.EntityJournalEntry, action, id, payload)
	}
}

func entryNumber(date time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("JE-%s-%s", date.Format("20060102"), suffix)
}

func cacheKey(id int64) string {
	return fmt.Sprintf("journal_entries:%d", id)
}
