package journal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/leafyhealth/accounting-management/internal/database"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
)

var repoTracer = otel.Tracer("github.com/leafyhealth/accounting-management/repository/journal")

// ErrNotDraft is returned when a state change requires a draft entry.
var ErrNotDraft = errors.New("journal entry is not a draft")

// Module provides the journal repository to Fx as a Store.
var Module = fx.Provide(fx.Annotate(NewRepository, fx.As(new(Store))))

// Store is the persistence contract for journal entries and their lines.
type Store interface {
	Create(ctx context.Context, entry *entity.JournalEntry) error
	List(ctx context.Context, opts crud.ListOptions) ([]entity.JournalEntry, int, error)
	GetByID(ctx context.Context, id int64) (*entity.JournalEntry, error)
	Post(ctx context.Context, id int64, at time.Time) (*entity.JournalEntry, error)
	Delete(ctx context.Context, id int64) error
}

// Repository persists journal entries with their lines.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts the entry and all of its lines in one database transaction.
func (r *Repository) Create(ctx context.Context, entry *entity.JournalEntry) error {
	if entry == nil {
		return errors.New("nil journal entry")
	}
	ctx, span := repoTracer.Start(ctx, "JournalRepository.Create", trace.WithAttributes(
		attribute.String("journal.number", entry.EntryNumber),
		attribute.Int("journal.lines", len(entry.Lines)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(entry).Exec(ctx); err != nil {
			return err
		}
		if len(entry.Lines) == 0 {
			return nil
		}
		for _, line := range entry.Lines {
			line.JournalEntryID = entry.ID
		}
		_, err := tx.NewInsert().Model(&entry.Lines).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// List returns entries newest first without their lines.
func (r *Repository) List(ctx context.Context, opts crud.ListOptions) ([]entity.JournalEntry, int, error) {
	ctx, span := repoTracer.Start(ctx, "JournalRepository.List")
	defer span.End()

	entries := make([]entity.JournalEntry, 0)
	q := r.reader.NewSelect().Model(&entries)
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
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}
	return entries, total, nil
}

// GetByID loads an entry with its lines.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.JournalEntry, error) {
	ctx, span := repoTracer.Start(ctx, "JournalRepository.GetByID", trace.WithAttributes(attribute.Int64("journal.id", id)))
	defer span.End()

	return r.load(ctx, r.reader, id)
}

// Post marks a draft entry as posted.
func (r *Repository) Post(ctx context.Context, id int64, at time.Time) (*entity.JournalEntry, error) {
	ctx, span := repoTracer.Start(ctx, "JournalRepository.Post", trace.WithAttributes(attribute.Int64("journal.id", id)))
	defer span.End()

	var posted *entity.JournalEntry
	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*entity.JournalEntry)(nil)).
			Set("status = ?", entity.JournalStatusPosted).
			Set("posted_at = ?", at).
			Set("updated_at = ?", at).
			Where("id = ?", id).
			Where("status = ?", entity.JournalStatusDraft).
			Exec(ctx)
		if err != nil {
			return err
		}
		if err := draftGuard(ctx, tx, res, id); err != nil {
			return err
		}
		posted, err = r.load(ctx, tx, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, crud.ErrNotFound) && !errors.Is(err, ErrNotDraft) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "post failed")
		}
		return nil, err
	}
	return posted, nil
}

// Delete removes a draft entry and its lines.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "JournalRepository.Delete", trace.WithAttributes(attribute.Int64("journal.id", id)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*entity.JournalEntry)(nil)).
			Where("id = ?", id).
			Where("status = ?", entity.JournalStatusDraft).
			Exec(ctx)
		if err != nil {
			return err
		}
		if err := draftGuard(ctx, tx, res, id); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*entity.JournalLine)(nil)).Where("journal_entry_id = ?", id).Exec(ctx)
		return err
	})
	if err != nil && !errors.Is(err, crud.ErrNotFound) && !errors.Is(err, ErrNotDraft) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}

// draftGuard turns a status-conditioned write that matched no row into
// ErrNotDraft, or crud.ErrNotFound when the entry does not exist.
func draftGuard(ctx context.Context, db bun.IDB, res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	exists, err := db.NewSelect().Model((*entity.JournalEntry)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return crud.ErrNotFound
	}
	return ErrNotDraft
}

func (r *Repository) load(ctx context.Context, db bun.IDB, id int64) (*entity.JournalEntry, error) {
	entry := new(entity.JournalEntry)
	err := db.NewSelect().
		Model(entry).
		Relation("Lines", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("jl.id ASC")
		}).
		Where("je.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, crud.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}
