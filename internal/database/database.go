// Package database opens the ledger's bun connections.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bunotel"
	"github.com/uptrace/bun/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/config"
)

const pingTimeout = 5 * time.Second

// Connections bundles the writer used for ledger mutations and the reader
// used for listings and reports. Reader is Writer when no replica is set.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New opens the writer and, when a distinct DSN is configured, a read
// replica. Both are pinged on start and closed on stop.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	conns, err := Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := conns.Ping(ctx); err != nil {
				return err
			}
			logger.Info("ledger database connected",
				zap.String("driver", cfg.Database.Driver),
				zap.Bool("replica", conns.HasReplica()),
			)
			return nil
		},
		OnStop: func(context.Context) error { return conns.Close() },
	})
	return conns, nil
}

// Connect opens the configured pools without verifying them.
func Connect(cfg config.Database) (*Connections, error) {
	writer, err := Open(cfg, cfg.WriterDSN)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	if cfg.ReaderDSN == "" || cfg.ReaderDSN == cfg.WriterDSN {
		return &Connections{Writer: writer, Reader: writer}, nil
	}

	reader, err := Open(cfg, cfg.ReaderDSN)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	return &Connections{Writer: writer, Reader: reader}, nil
}

// HasReplica reports whether reads go to a separate pool.
func (c *Connections) HasReplica() bool { return c.Reader != c.Writer }

// Ping checks every pool, bounding each check to pingTimeout.
func (c *Connections) Ping(ctx context.Context) error {
	if err := ping(ctx, c.Writer); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if c.HasReplica() {
		if err := ping(ctx, c.Reader); err != nil {
			return fmt.Errorf("ping reader: %w", err)
		}
	}
	return nil
}

// Close releases every pool.
func (c *Connections) Close() error {
	var errs []error
	if err := c.Writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close writer: %w", err))
	}
	if c.HasReplica() {
		if err := c.Reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Open builds a bun.DB for one DSN with pool settings and query tracing applied.
func Open(cfg config.Database, dsn string) (*bun.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	var (
		sqlDB *sql.DB
		dial  schema.Dialect
		err   error
	)
	switch cfg.Driver {
	case "postgres":
		sqlDB, dial = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New()
	case "mysql":
		sqlDB, err = sql.Open("mysql", dsn)
		dial = mysqldialect.New()
	case "sqlite":
		sqlDB, err = sql.Open(sqliteshim.ShimName, dsn)
		dial = sqlitedialect.New()
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	tunePool(sqlDB, cfg)

	db := bun.NewDB(sqlDB, dial)
	db.AddQueryHook(bunotel.NewQueryHook(
		bunotel.WithDBName("accounting"),
		bunotel.WithFormattedQueries(true),
	))
	return db, nil
}

func tunePool(db *sql.DB, cfg config.Database) {
	if cfg.Driver == "sqlite" {
		// in-memory sqlite databases are per connection
		db.SetMaxOpenConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
}

func ping(ctx context.Context, db *bun.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}
