package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/event"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Record(ctx context.Context, log *entity.AuditLog) (bool, error) {
	args := m.Called(ctx, log)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, opts crud.ListOptions) ([]entity.AuditLog, int, error) {
	args := m.Called(ctx, opts)
	items, _ := args.Get(0).([]entity.AuditLog)
	return items, args.Int(1), args.Error(2)
}

func TestRecordMapsEvent(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil)
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	store.On("Record", mock.Anything, mock.MatchedBy(func(l *entity.AuditLog) bool {
		return l.EventID == "evt-1" && l.Entity == "expense" && l.EntityID == 4 &&
			l.Action == "approved" && l.Actor == "u1" && l.OccurredAt.Equal(at) &&
			l.Payload["status"] == "approved"
	})).Return(true, nil)

	ok, err := svc.Record(context.Background(), event.Event{
		ID: "evt-1", Type: "expense.approved", Entity: "expense", Action: "approved",
		EntityID: 4, Actor: "u1", OccurredAt: at, Payload: json.RawMessage(`{"status":"approved"}`),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	store.AssertExpectations(t)
}

func TestRecordDuplicate(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil)
	store.On("Record", mock.Anything, mock.Anything).Return(false, nil)

	ok, err := svc.Record(context.Background(), event.Event{ID: "evt-2", Entity: "account", Action: "deleted"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordWrapsScalarPayload(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil)
	store.On("Record", mock.Anything, mock.MatchedBy(func(l *entity.AuditLog) bool {
		return l.Payload["value"] == "plain"
	})).Return(true, nil)

	_, err := svc.Record(context.Background(), event.Event{ID: "evt-3", Payload: json.RawMessage(`"plain"`)})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestListFailure(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, nil)
	store.On("List", mock.Anything, mock.Anything).Return(nil, 0, errors.New("boom"))

	_, _, err := svc.List(context.Background(), dto.AuditListQuery{Entity: "expense"})
	assert.True(t, errorbank.Is(err, errorbank.KindInternal))
}
