package account

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	"github.com/leafyhealth/accounting-management/internal/repository/repotest"
)

func TestRepository_CodeAndHierarchy(t *testing.T) {
	ctx := context.Background()
	conns := repotest.NewSQLite(t)
	repo := NewRepository(conns)
	now := time.Now().UTC()

	parent := &entity.Account{Code: "1000", Name: "Assets", Type: entity.AccountTypeAsset, Status: entity.StatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, parent))

	child := &entity.Account{Code: "1010", Name: "Cash", Type: entity.AccountTypeAsset, ParentID: &parent.ID, Status: entity.StatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Create(ctx, child))

	got, err := repo.GetByCode(ctx, "1010")
	require.NoError(t, err)
	assert.Equal(t, child.ID, got.ID)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent.ID, *got.ParentID)

	_, err = repo.GetByCode(ctx, "9999")
	assert.ErrorIs(t, err, crud.ErrNotFound)

	hasChildren, err := repo.HasChildren(ctx, parent.ID)
	require.NoError(t, err)
	assert.True(t, hasChildren)

	hasChildren, err = repo.HasChildren(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, hasChildren)

	referenced, err := repo.IsReferenced(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, referenced)

	_, err = conns.Writer.NewInsert().Model(&entity.JournalLine{JournalEntryID: 1, AccountID: child.ID, Debit: decimal.NewFromInt(1), Credit: decimal.Zero}).Exec(ctx)
	require.NoError(t, err)

	referenced, err = repo.IsReferenced(ctx, child.ID)
	require.NoError(t, err)
	assert.True(t, referenced)
}
