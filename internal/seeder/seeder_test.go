package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/account"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	"github.com/leafyhealth/accounting-management/internal/repository/repotest"
)

func TestAccountsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := account.NewRepository(repotest.NewSQLite(t))
	seed := New(repo, nil)

	created, err := seed.Accounts(ctx, DefaultChart)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultChart), created)

	created, err = seed.Accounts(ctx, DefaultChart)
	require.NoError(t, err)
	assert.Zero(t, created)

	_, total, err := repo.List(ctx, crud.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(DefaultChart), total)

	parent, err := repo.GetByCode(ctx, "1000")
	require.NoError(t, err)
	cash, err := repo.GetByCode(ctx, "1100")
	require.NoError(t, err)
	require.NotNil(t, cash.ParentID)
	assert.Equal(t, parent.ID, *cash.ParentID)
	assert.Equal(t, entity.StatusActive, cash.Status)
}

func TestAccountsRejectsUnknownParent(t *testing.T) {
	seed := New(account.NewRepository(repotest.NewSQLite(t)), nil)

	_, err := seed.Accounts(context.Background(), []AccountSeed{
		{Code: "9100", Name: "Orphan", Type: entity.AccountTypeAsset, ParentCode: "9000"},
	})
	assert.ErrorContains(t, err, "parent 9000 not seeded")
}
