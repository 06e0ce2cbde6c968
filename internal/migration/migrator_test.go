package migration

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/db"
	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/database"
)

func TestGooseDialect(t *testing.T) {
	tests := map[string]goose.Dialect{
		"postgres": goose.DialectPostgres,
		"pg":       goose.DialectPostgres,
		"mysql":    goose.DialectMySQL,
		"sqlite":   goose.DialectSQLite3,
		"sqlite3":  goose.DialectSQLite3,
	}
	for driver, want := range tests {
		got, err := gooseDialect(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want, got)
	}

	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}

func TestIsNoMigrationErr(t *testing.T) {
	assert.False(t, isNoMigrationErr(nil))
	assert.True(t, isNoMigrationErr(goose.ErrNoNextVersion))
	assert.True(t, isNoMigrationErr(fmt.Errorf("up: %w", goose.ErrNoMigrationFiles)))
	assert.True(t, isNoMigrationErr(errors.New("no migrations found")))
	assert.False(t, isNoMigrationErr(errors.New("connection refused")))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(db.Migrations, db.MigrationsDir)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	for _, entry := range entries {
		raw, err := fs.ReadFile(db.Migrations, db.MigrationsDir+"/"+entry.Name())
		require.NoError(t, err)
		assert.Contains(t, string(raw), "-- +goose Up", entry.Name())
		assert.Contains(t, string(raw), "-- +goose Down", entry.Name())
	}
}

func TestMigratorLifecycleOnSQLite(t *testing.T) {
	cfg := config.Config{Database: config.Database{Driver: "sqlite"}}
	ledger, err := database.Open(cfg.Database, "file:"+filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	mig, err := New(cfg, &database.Connections{Writer: ledger, Reader: ledger}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, mig.Up(ctx))
	require.NoError(t, mig.Up(ctx))

	version, err := mig.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, version)

	states, err := mig.Status(ctx)
	require.NoError(t, err)
	require.Len(t, states, 5)
	for _, st := range states {
		assert.True(t, st.Applied, st.File)
	}

	require.NoError(t, mig.Down(ctx, 2, false))
	version, err = mig.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, version)

	states, err = mig.Status(ctx)
	require.NoError(t, err)
	assert.False(t, states[4].Applied)
	assert.Equal(t, "00005_audit_logs.sql", states[4].File)

	require.NoError(t, mig.Down(ctx, 0, true))
	version, err = mig.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, version)

	require.NoError(t, mig.Down(ctx, 1, false))
}
