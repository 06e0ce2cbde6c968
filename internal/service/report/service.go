package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
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
	"github.com/leafyhealth/accounting-management/internal/observability"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	expenserepo "github.com/leafyhealth/accounting-management/internal/repository/expense"
	txrepo "github.com/leafyhealth/accounting-management/internal/repository/transaction"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/leafyhealth/accounting-management/service/report")

// CacheKeys matches every cached report of every generation.
const CacheKeys = "reports:*"

// Report names used in cache keys and metrics.
const (
	NameProfitLoss     = "profit-loss"
	NameBalanceSheet   = "balance-sheet"
	NameExpenseSummary = "expense-summary"
)

var hundred = decimal.NewFromInt(100)

// Service computes financial reports from aggregated rows.
type Service struct {
	transactions txrepo.Store
	expenses     expenserepo.Store
	cache        cache.Store
	ttl          time.Duration
	logger       *zap.Logger
	metrics      *observability.Recorder
	now          func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Transactions txrepo.Store
	Expenses     expenserepo.Store
	Cache        cache.Store
	Config       config.Config
	Logger       *zap.Logger
	Metrics      *observability.Recorder `optional:"true"`
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
		transactions: p.Transactions,
		expenses:     p.Expenses,
		cache:        store,
		ttl:          min(p.Config.Cache.ReportTTL, maxReportTTL),
		logger:       logger,
		metrics:      p.Metrics,
		now:          time.Now,
	}
}

// ProfitAndMargin returns revenue − expenses and the profit as a percentage of
// revenue rounded to two places. The margin is zero when there is no revenue.
func ProfitAndMargin(revenue, expenses decimal.Decimal) (profit, margin decimal.Decimal) {
	profit = revenue.Sub(expenses)
	if revenue.IsZero() {
		return profit, decimal.Zero
	}
	return profit, profit.Div(revenue).Mul(hundred).Round(2)
}

// Equity returns assets − liabilities.
func Equity(assets, liabilities decimal.Decimal) decimal.Decimal {
	return assets.Sub(liabilities)
}

// ProfitLoss sums revenue and expense transactions within the range.
func (s *Service) ProfitLoss(ctx context.Context, q dto.RangeQuery) (*dto.ProfitLossReport, error) {
	from, to := q.Bounds()
	ctx, span := s.start(ctx, NameProfitLoss, from, to)
	defer span.End()

	key := cacheKey(generation(ctx, s.cache), NameProfitLoss, from, to)
	if cached, ok := lookup[dto.ProfitLossReport](ctx, s, key); ok {
		s.metrics.Report(ctx, NameProfitLoss, true)
		return cached, nil
	}

	totals, err := s.transactions.TotalsByType(ctx, crud.Period{From: from, To: to})
	if err != nil {
		return nil, s.failed(span, NameProfitLoss, err)
	}

	revenue := totalOf(totals, entity.AccountTypeRevenue)
	expenses := totalOf(totals, entity.AccountTypeExpense)
	profit, margin := ProfitAndMargin(revenue, expenses)

	report := &dto.ProfitLossReport{
		From:         timeOrNil(q.From),
		To:           timeOrNil(q.To),
		Revenue:      revenue,
		Expenses:     expenses,
		Profit:       profit,
		ProfitMargin: margin,
		GeneratedAt:  s.now().UTC(),
	}
	s.store(ctx, key, report)
	s.metrics.Report(ctx, NameProfitLoss, false)
	return report, nil
}

// BalanceSheet sums asset and liability transactions up to and including as_of.
func (s *Service) BalanceSheet(ctx context.Context, q dto.BalanceSheetQuery) (*dto.BalanceSheetReport, error) {
	_, cutoff := dto.RangeQuery{To: q.AsOf}.Bounds()
	ctx, span := s.start(ctx, NameBalanceSheet, time.Time{}, cutoff)
	defer span.End()

	key := cacheKey(generation(ctx, s.cache), NameBalanceSheet, time.Time{}, cutoff)
	if cached, ok := lookup[dto.BalanceSheetReport](ctx, s, key); ok {
		s.metrics.Report(ctx, NameBalanceSheet, true)
		return cached, nil
	}

	totals, err := s.transactions.TotalsByType(ctx, crud.Period{To: cutoff})
	if err != nil {
		return nil, s.failed(span, NameBalanceSheet, err)
	}

	assets := totalOf(totals, entity.AccountTypeAsset)
	liabilities := totalOf(totals, entity.AccountTypeLiability)

	report := &dto.BalanceSheetReport{
		AsOf:        timeOrNil(q.AsOf),
		Assets:      assets,
		Liabilities: liabilities,
		Equity:      Equity(assets, liabilities),
		GeneratedAt: s.now().UTC(),
	}
	s.store(ctx, key, report)
	s.metrics.Report(ctx, NameBalanceSheet, false)
	return report, nil
}

// ExpenseSummary totals non-rejected expenses per category within the range.
func (s *Service) ExpenseSummary(ctx context.Context, q dto.RangeQuery) (*dto.ExpenseSummaryReport, error) {
	from, to := q.Bounds()
	ctx, span := s.start(ctx, NameExpenseSummary, from, to)
	defer span.End()

	key := cacheKey(generation(ctx, s.cache), NameExpenseSummary, from, to)
	if cached, ok := lookup[dto.ExpenseSummaryReport](ctx, s, key); ok {
		s.metrics.Report(ctx, NameExpenseSummary, true)
		return cached, nil
	}

	rows, err := s.expenses.TotalsByCategory(ctx, crud.Period{From: from, To: to})
	if err != nil {
		return nil, s.failed(span, NameExpenseSummary, err)
	}

	report := &dto.ExpenseSummaryReport{
		From:        timeOrNil(q.From),
		To:          timeOrNil(q.To),
		Categories:  make([]dto.ExpenseCategoryTotal, 0, len(rows)),
		Total:       decimal.Zero,
		GeneratedAt: s.now().UTC(),
	}
	for _, row := range rows {
		report.Categories = append(report.Categories, dto.ExpenseCategoryTotal{
			Category: row.Category,
			Count:    row.Count,
			Total:    row.Total,
		})
		report.Total = report.Total.Add(row.Total)
	}
	s.store(ctx, key, report)
	s.metrics.Report(ctx, NameExpenseSummary, false)
	return report, nil
}

func (s *Service) start(ctx context.Context, name string, from, to time.Time) (context.Context, trace.Span) {
	return serviceTracer.Start(ctx, "ReportService."+name, trace.WithAttributes(
		attribute.String("report.from", stamp(from)),
		attribute.String("report.to", stamp(to)),
	))
}

func (s *Service) failed(span trace.Span, name string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "aggregate failed")
	return errorbank.Internal(fmt.Sprintf("failed to build %s report", name), errorbank.WithCause(err))
}

func (s *Service) store(ctx context.Context, key string, report any) {
	if err := cache.SetJSON(ctx, s.cache, key, report, s.ttl); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func lookup[T any](ctx context.Context, s *Service, key string) (*T, bool) {
	cached, err := cache.GetJSON[T](ctx, s.cache, key)
	if err == nil {
		return cached, true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}
	return nil, false
}

func totalOf(totals map[entity.AccountType]decimal.Decimal, t entity.AccountType) decimal.Decimal {
	if v, ok := totals[t]; ok {
		return v
	}
	return decimal.Zero
}

func timeOrNil(d *dto.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}

func cacheKey(gen, name string, from, to time.Time) string {
	return fmt.Sprintf("reports:%s:%s:%s:%s", gen, name, stamp(from), stamp(to))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}
