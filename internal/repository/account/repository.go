package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/leafyhealth/accounting-management/internal/database"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
)

// Module provides the account repository to Fx as a Store.
var Module = fx.Provide(fx.Annotate(NewRepository, fx.As(new(Store))))

// Store is the persistence contract for the chart of accounts.
type Store interface {
	Create(ctx context.Context, acc *entity.Account) error
	List(ctx context.Context, opts crud.ListOptions) ([]entity.Account, int, error)
	GetByID(ctx context.Context, id int64) (*entity.Account, error)
	GetByCode(ctx context.Context, code string) (*entity.Account, error)
	Update(ctx context.Context, acc *entity.Account, columns ...string) error
	Delete(ctx context.Context, id int64) error
	HasChildren(ctx context.Context, id int64) (bool, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
}

// Repository persists chart-of-accounts rows.
type Repository struct {
	*crud.Repository[entity.Account]
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{Repository: crud.New[entity.Account](conns, "account")}
}

// GetByCode looks an account up by its unique code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*entity.Account, error) {
	acc := new(entity.Account)
	err := r.Reader().NewSelect().Model(acc).Where("code = ?", code).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, crud.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// HasChildren reports whether any account names id as its parent.
func (r *Repository) HasChildren(ctx context.Context, id int64) (bool, error) {
	return r.Exists(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("parent_id = ?", id)
	})
}

// IsReferenced reports whether journal lines are booked against id.
func (r *Repository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	return r.Reader().NewSelect().
		Model((*entity.JournalLine)(nil)).
		Where("account_id = ?", id).
		Exists(ctx)
}
