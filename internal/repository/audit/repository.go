package audit

import (
	"context"

	"go.uber.org/fx"

	"github.com/leafyhealth/accounting-management/internal/database"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
)

// Module provides the audit log repository to Fx as a Store.
var Module = fx.Provide(fx.Annotate(NewRepository, fx.As(new(Store))))

// Store is the persistence contract for audit logs.
type Store interface {
	Record(ctx context.Context, log *entity.AuditLog) (bool, error)
	List(ctx context.Context, opts crud.ListOptions) ([]entity.AuditLog, int, error)
}

// Repository persists audit logs.
type Repository struct {
	*crud.Repository[entity.AuditLog]
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{Repository: crud.New[entity.AuditLog](conns, "audit_log")}
}

// Record inserts log unless an entry with the same event id exists. It
// reports whether a row was written.
func (r *Repository) Record(ctx context.Context, log *entity.AuditLog) (bool, error) {
	res, err := r.Writer().NewInsert().
		Model(log).
		On("CONFLICT (event_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
