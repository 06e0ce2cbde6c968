package transaction

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"

	"github.com/leafyhealth/accounting-management/internal/database"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
)

var repoTracer = otel.Tracer("github.com/leafyhealth/accounting-management/repository/transaction")

// Module provides the transaction repository to Fx as a Store.
var Module = fx.Provide(fx.Annotate(NewRepository, fx.As(new(Store))))

// Store is the persistence contract used by the transaction and report services.
type Store interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	List(ctx context.Context, opts crud.ListOptions) ([]entity.Transaction, int, error)
	GetByID(ctx context.Context, id int64) (*entity.Transaction, error)
	Update(ctx context.Context, tx *entity.Transaction, columns ...string) error
	Delete(ctx context.Context, id int64) error
	TotalsByType(ctx context.Context, period crud.Period) (map[entity.AccountType]decimal.Decimal, error)
}

// Repository persists transactions.
type Repository struct {
	*crud.Repository[entity.Transaction]
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{Repository: crud.New[entity.Transaction](conns, "transaction")}
}

type typeTotal struct {
	Type  entity.AccountType `bun:"type"`
	Total decimal.Decimal    `bun:"total"`
}

// TotalsByType sums non-cancelled transaction amounts per type within period.
// Types with no rows are absent from the result.
func (r *Repository) TotalsByType(ctx context.Context, period crud.Period) (map[entity.AccountType]decimal.Decimal, error) {
	ctx, span := repoTracer.Start(ctx, "TransactionRepository.TotalsByType")
	defer span.End()

	var rows []typeTotal
	q := r.Reader().NewSelect().
		Model((*entity.Transaction)(nil)).
		Column("type").
		ColumnExpr("COALESCE(SUM(amount), 0) AS total").
		Where("status <> ?", entity.TransactionStatusCancelled).
		Group("type")
	q = period.Filter("transaction_date")(q)

	if err := q.Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}

	totals := make(map[entity.AccountType]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.Type] = row.Total
	}
	return totals, nil
}
