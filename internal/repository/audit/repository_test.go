package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	"github.com/leafyhealth/accounting-management/internal/repository/repotest"
)

func TestRepository_RecordIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(repotest.NewSQLite(t))
	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

	log := func() *entity.AuditLog {
		return &entity.AuditLog{
			EventID:    "6f1f2a9e-8f59-4c8e-9b8e-2f7f4a8c0f11",
			Entity:     "transaction",
			EntityID:   42,
			Action:     "created",
			Actor:      "user-1",
			Payload:    map[string]any{"amount": "10.00"},
			OccurredAt: at,
			CreatedAt:  at,
		}
	}

	written, err := repo.Record(ctx, log())
	require.NoError(t, err)
	assert.True(t, written)

	written, err = repo.Record(ctx, log())
	require.NoError(t, err)
	assert.False(t, written)

	logs, total, err := repo.List(ctx, crud.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "transaction", logs[0].Entity)
	assert.Equal(t, "10.00", logs[0].Payload["amount"])
}
