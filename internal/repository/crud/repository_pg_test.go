package crud_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/leafyhealth/accounting-management/internal/database"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
)

// newMockRepository builds a repository over sqlmock using the Postgres dialect.
func newMockRepository(t *testing.T) (*crud.Repository[entity.Expense], sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := bun.NewDB(mockDB, pgdialect.New())
	return crud.New[entity.Expense](&database.Connections{Writer: db, Reader: db}, "expense"), mock
}

func TestRepository_Postgres_GetByID(t *testing.T) {
	t.Run("scans row", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		rows := sqlmock.NewRows([]string{"id", "category", "amount", "status"}).
			AddRow(7, "rent", "99.90", "pending")
		mock.ExpectQuery(`SELECT .* FROM "expenses" AS "e" WHERE .*id = 7.* LIMIT 1`).
			WillReturnRows(rows)

		exp, err := repo.GetByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), exp.ID)
		assert.Equal(t, "rent", exp.Category)
		assert.True(t, decimal.RequireFromString("99.90").Equal(exp.Amount))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps no rows to ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectQuery(`SELECT .* FROM "expenses"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		exp, err := repo.GetByID(context.Background(), 8)
		assert.ErrorIs(t, err, crud.ErrNotFound)
		assert.Nil(t, exp)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates driver errors", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		boom := errors.New("connection reset")

		mock.ExpectQuery(`SELECT .* FROM "expenses"`).WillReturnError(boom)

		_, err := repo.GetByID(context.Background(), 9)
		assert.ErrorIs(t, err, boom)
	})
}

func TestRepository_Postgres_Delete(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectExec(`DELETE FROM "expenses" AS "e" WHERE .*id = 3`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), 3))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectExec(`DELETE FROM "expenses"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), 3), crud.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Postgres_UpdateMissing(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`UPDATE "expenses" AS "e" SET "category" = 'office'`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &entity.Expense{ID: 11, Category: "office"}, "category")
	assert.ErrorIs(t, err, crud.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Postgres_UpdateIfStale(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`UPDATE "expenses" AS "e" SET "status" = 'approved' WHERE \("e"."id" = 12\) AND \("status" = 'pending'\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT .* FROM "expenses" AS "e" WHERE \("e"."id" = 12\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exp := &entity.Expense{ID: 12, Status: entity.ExpenseStatusApproved}
	err := repo.UpdateIf(context.Background(), exp, "status", entity.ExpenseStatusPending, "status")
	assert.ErrorIs(t, err, crud.ErrStale)
	assert.NoError(t, mock.ExpectationsWereMet())
}
