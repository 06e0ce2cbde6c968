package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/db"
	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/database"
)

// Module provides the Migrator to Fx.
var Module = fx.Provide(New)

// State describes one schema migration as seen by the ledger database.
type State struct {
	Version   int64
	File      string
	Applied   bool
	AppliedAt time.Time
}

// Migrator applies the embedded ledger schema through a goose provider bound to
// the writer connection.
type Migrator struct {
	provider *goose.Provider
	logger   *zap.Logger
}

// New constructs a goose-backed migrator.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	files, err := fs.Sub(db.Migrations, db.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("migration files: %w", err)
	}

	provider, err := goose.NewProvider(dialect, conns.Writer.DB, files)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	return &Migrator{
		provider: provider,
		logger:   logger.Named("migration"),
	}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("schema already current")
			return nil
		}
		return err
	}

	for _, res := range results {
		m.logResult(res)
	}
	m.logger.Info("migrations applied", zap.Int("count", len(results)))
	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		results, err := m.provider.DownTo(ctx, 0)
		if err != nil && !isNoMigrationErr(err) {
			return err
		}
		for _, res := range results {
			m.logResult(res)
		}
		m.logger.Info("schema rolled back", zap.String("mode", "all"), zap.Int("count", len(results)))
		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	rolled := 0
	for ; rolled < steps; rolled++ {
		res, err := m.provider.Down(ctx)
		if err != nil {
			if isNoMigrationErr(err) {
				break
			}
			return err
		}
		m.logResult(res)
	}

	m.logger.Info("schema rolled back", zap.Int("requested", steps), zap.Int("count", rolled))
	return nil
}

// Version reports the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

// Status lists every embedded migration with its applied state, oldest first.
func (m *Migrator) Status(ctx context.Context) ([]State, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]State, 0, len(statuses))
	for _, st := range statuses {
		if st == nil || st.Source == nil {
			continue
		}
		out = append(out, State{
			Version:   st.Source.Version,
			File:      st.Source.Path,
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}

func (m *Migrator) logResult(res *goose.MigrationResult) {
	if res == nil || res.Source == nil {
		return
	}
	m.logger.Info("migration",
		zap.Int64("version", res.Source.Version),
		zap.String("file", res.Source.Path),
		zap.String("direction", res.Direction),
		zap.Duration("took", res.Duration),
	)
}

func gooseDialect(driver string) (goose.Dialect, error) {
	switch driver {
	case "postgres", "pg":
		return goose.DialectPostgres, nil
	case "mysql":
		return goose.DialectMySQL, nil
	case "sqlite", "sqlite3":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	return strings.Contains(err.Error(), "no migrations")
}
