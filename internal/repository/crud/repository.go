package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/leafyhealth/accounting-management/internal/database"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("record not found")

// ErrStale is returned by UpdateIf when the row exists but its guarded
// column no longer holds the expected value.
var ErrStale = errors.New("record changed since it was read")

// Filter narrows a select query.
type Filter func(*bun.SelectQuery) *bun.SelectQuery

// ListOptions controls paging and filtering for List.
type ListOptions struct {
	Limit  int
	Offset int
	Filter Filter
}

// Repository implements the create/list/get/update/delete shape shared by
// every table keyed by an int64 "id" column.
type Repository[T any] struct {
	writer *bun.DB
	reader *bun.DB
	entity string
	tracer trace.Tracer
}

// New builds a Repository for model T. entity names the spans and attributes.
func New[T any](conns *database.Connections, entity string) *Repository[T] {
	return &Repository[T]{
		writer: conns.Writer,
		reader: conns.Reader,
		entity: entity,
		tracer: otel.Tracer("github.com/leafyhealth/accounting-management/repository/" + entity),
	}
}

// Create inserts model using the write connection. Generated columns such as
// the primary key are written back into model.
func (r *Repository[T]) Create(ctx context.Context, model *T) error {
	if model == nil {
		return fmt.Errorf("nil %s", r.entity)
	}
	ctx, span := r.start(ctx, "Create")
	defer span.End()

	if _, err := r.writer.NewInsert().Model(model).Exec(ctx); err != nil {
		return r.fail(span, err, "insert failed")
	}
	return nil
}

// List returns one page of rows, newest first, and the total number of rows
// matching the filter.
func (r *Repository[T]) List(ctx context.Context, opts ListOptions) ([]T, int, error) {
	ctx, span := r.start(ctx, "List", attribute.Int("limit", opts.Limit), attribute.Int("offset", opts.Offset))
	defer span.End()

	items := make([]T, 0)
	q := r.reader.NewSelect().Model(&items)
	if opts.Filter != nil {
		q = opts.Filter(q)
	}
	q = q.OrderExpr("created_at DESC, id DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, r.fail(span, err, "select failed")
	}
	span.SetAttributes(attribute.Int("total", total))
	return items, total, nil
}

// GetByID fetches a row by primary key using the read replica when available.
func (r *Repository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	ctx, span := r.start(ctx, "GetByID", attribute.Int64(r.entity+".id", id))
	defer span.End()

	model := new(T)
	err := r.reader.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, r.fail(span, err, "select failed")
	}
	return model, nil
}

// Update writes the named columns of model, matched by its primary key, and
// reloads the row from the writer so callers observe stored values.
func (r *Repository[T]) Update(ctx context.Context, model *T, columns ...string) error {
	return r.update(ctx, "Update", model, nil, columns)
}

// UpdateIf is Update restricted to a row whose column still equals want.
func (r *Repository[T]) UpdateIf(ctx context.Context, model *T, column string, want any, columns ...string) error {
	guard := func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Where("? = ?", bun.Ident(column), want)
	}
	return r.update(ctx, "UpdateIf", model, guard, columns)
}

func (r *Repository[T]) update(ctx context.Context, op string, model *T, guard func(*bun.UpdateQuery) *bun.UpdateQuery, columns []string) error {
	if model == nil {
		return fmt.Errorf("nil %s", r.entity)
	}
	ctx, span := r.start(ctx, op, attribute.StringSlice("columns", columns))
	defer span.End()

	q := r.writer.NewUpdate().Model(model).WherePK()
	if guard != nil {
		q = guard(q)
	}
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return r.fail(span, err, "update failed")
	}
	if affected(res) == 0 {
		if guard != nil {
			exists, err := r.writer.NewSelect().Model(model).WherePK().Exists(ctx)
			if err != nil {
				return r.fail(span, err, "exists failed")
			}
			if exists {
				span.SetStatus(codes.Error, "stale")
				return ErrStale
			}
		}
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}

	if err := r.writer.NewSelect().Model(model).WherePK().Scan(ctx); err != nil {
		return r.fail(span, err, "reload failed")
	}
	return nil
}

// Delete removes the row with the given id.
func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	ctx, span := r.start(ctx, "Delete", attribute.Int64(r.entity+".id", id))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return r.fail(span, err, "delete failed")
	}
	if affected(res) == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// Exists reports whether any row matches filter.
func (r *Repository[T]) Exists(ctx context.Context, filter Filter) (bool, error) {
	ctx, span := r.start(ctx, "Exists")
	defer span.End()

	q := r.reader.NewSelect().Model((*T)(nil))
	if filter != nil {
		q = filter(q)
	}
	ok, err := q.Exists(ctx)
	if err != nil {
		return false, r.fail(span, err, "exists failed")
	}
	return ok, nil
}

// Reader exposes the read connection to embedding repositories.
func (r *Repository[T]) Reader() *bun.DB {
	return r.reader
}

// Writer exposes the write connection to embedding repositories.
func (r *Repository[T]) Writer() *bun.DB {
	return r.writer
}

func (r *Repository[T]) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, r.entity+"Repository."+op, trace.WithAttributes(attrs...))
}

func (r *Repository[T]) fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}

func affected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
