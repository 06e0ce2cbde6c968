// Package repotest provides an in-memory SQLite database with the service
// schema for repository tests.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/leafyhealth/accounting-management/internal/database"
	"github.com/leafyhealth/accounting-management/internal/entity"
)

var dbSeq atomic.Int64

// Models lists every table created by NewSQLite, parents first.
var Models = []any{
	(*entity.Account)(nil),
	(*entity.Transaction)(nil),
	(*entity.Expense)(nil),
	(*entity.JournalEntry)(nil),
	(*entity.JournalLine)(nil),
	(*entity.AuditLog)(nil),
}

// NewSQLite opens a private in-memory database, creates all tables and
// returns connections whose writer and reader share it.
func NewSQLite(t testing.TB) *database.Connections {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range Models {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return &database.Connections{Writer: db, Reader: db}
}
