package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/cache"
	"github.com/leafyhealth/accounting-management/internal/event"
	"github.com/leafyhealth/accounting-management/internal/messaging"
)

type fakeRecorder struct {
	seen map[string]bool
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, evt event.Event) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[evt.ID] {
		return false, nil
	}
	f.seen[evt.ID] = true
	return true, nil
}

func message(t *testing.T, evt event.Event) messaging.Message {
	t.Helper()
	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	return messaging.Message{Topic: "accounting.events", Value: raw}
}

func TestHandleRecordsAndInvalidatesReports(t *testing.T) {
	ctx := context.Background()
	store := cache.Memory(time.Minute)
	require.NoError(t, store.Set(ctx, "reports:profit-loss:-:-", []byte("{}"), 0))
	require.NoError(t, store.Set(ctx, "accounts:1", []byte("{}"), 0))

	rec := &fakeRecorder{}
	handle := Handle(rec, store, nil, nil)

	err := handle(ctx, message(t, event.Event{ID: "evt-1", Type: "expense.approved", Entity: event.EntityExpense, Action: event.ActionApproved, EntityID: 3}))
	require.NoError(t, err)
	assert.True(t, rec.seen["evt-1"])

	_, err = store.Get(ctx, "reports:profit-loss:-:-")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	_, err = store.Get(ctx, "accounts:1")
	assert.NoError(t, err)
}

func TestHandleKeepsReportsForAccountEvents(t *testing.T) {
	ctx := context.Background()
	store := cache.Memory(time.Minute)
	require.NoError(t, store.Set(ctx, "reports:balance-sheet:-:-", []byte("{}"), 0))

	handle := Handle(&fakeRecorder{}, store, nil, nil)
	require.NoError(t, handle(ctx, message(t, event.Event{ID: "evt-2", Entity: event.EntityAccount, Action: event.ActionCreated, EntityID: 1})))

	_, err := store.Get(ctx, "reports:balance-sheet:-:-")
	assert.NoError(t, err)
}

func TestHandleDuplicateIsAcknowledged(t *testing.T) {
	rec := &fakeRecorder{}
	handle := Handle(rec, nil, nil, nil)
	msg := message(t, event.Event{ID: "evt-3", Entity: event.EntityTransaction, Action: event.ActionCreated, EntityID: 9})

	require.NoError(t, handle(context.Background(), msg))
	require.NoError(t, handle(context.Background(), msg))
	assert.Len(t, rec.seen, 1)
}

func TestHandleSkipsPoisonMessages(t *testing.T) {
	rec := &fakeRecorder{}
	handle := Handle(rec, nil, nil, nil)

	assert.NoError(t, handle(context.Background(), messaging.Message{Value: []byte("not json")}))
	assert.NoError(t, handle(context.Background(), messaging.Message{Value: []byte(`{"entity":"expense"}`)}))
	assert.Empty(t, rec.seen)
}

func TestHandleRetriesOnStoreFailure(t *testing.T) {
	handle := Handle(&fakeRecorder{err: errors.New("db down")}, nil, nil, nil)

	err := handle(context.Background(), message(t, event.Event{ID: "evt-4", Entity: event.EntityExpense, Action: event.ActionCreated, EntityID: 1}))
	assert.EqualError(t, err, "db down")
}
