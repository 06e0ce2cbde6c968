package expense

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

var repoTracer = otel.Tracer("github.com/leafyhealth/accounting-management/repository/expense")

// Module provides the expense repository to Fx as a Store.
var Module = fx.Provide(fx.Annotate(NewRepository, fx.As(new(Store))))

// Store is the persistence contract for expenses.
type Store interface {
	Create(ctx context.Context, exp *entity.Expense) error
	List(ctx context.Context, opts crud.ListOptions) ([]entity.Expense, int, error)
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)
	Update(ctx context.Context, exp *entity.Expense, columns ...string) error
	UpdateIf(ctx context.Context, exp *entity.Expense, column string, want any, columns ...string) error
	Delete(ctx context.Context, id int64) error
	TotalsByCategory(ctx context.Context, period crud.Period) ([]CategoryTotal, error)
}

// CategoryTotal is the aggregated spend of one expense category.
type CategoryTotal struct {
	Category string          `bun:"category" json:"category"`
	Count    int             `bun:"count" json:"count"`
	Total    decimal.Decimal `bun:"total" json:"total"`
}

// Repository persists expenses.
type Repository struct {
	*crud.Repository[entity.Expense]
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{Repository: crud.New[entity.Expense](conns, "expense")}
}

// TotalsByCategory sums expenses per category, excluding rejected ones,
// largest category first.
func (r *Repository) TotalsByCategory(ctx context.Context, period crud.Period) ([]CategoryTotal, error) {
	ctx, span := repoTracer.Start(ctx, "ExpenseRepository.TotalsByCategory")
	defer span.End()

	rows := make([]CategoryTotal, 0)
	q := r.Reader().NewSelect().
		Model((*entity.Expense)(nil)).
		Column("category").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(amount), 0) AS total").
		Where("status <> ?", entity.ExpenseStatusRejected).
		Group("category").
		OrderExpr("total DESC, category ASC")
	q = period.Filter("expense_date")(q)

	if err := q.Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return nil, err
	}
	return rows, nil
}
