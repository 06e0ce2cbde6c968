package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/auth"
	"github.com/leafyhealth/accounting-management/internal/messaging"
)

type published struct {
	key     string
	value   []byte
	headers map[string]string
}

type recordingClient struct {
	sent []published
	err  error
}

func (c *recordingClient) Publish(_ context.Context, key, value []byte, headers map[string]string) error {
	c.sent = append(c.sent, published{key: string(key), value: value, headers: headers})
	return c.err
}

func (c *recordingClient) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *recordingClient) Topic() string { return "accounting.events" }

func TestBusPublisherPublish(t *testing.T) {
	client := &recordingClient{}
	p := NewBusPublisher(client, nil)
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	ctx := auth.WithPrincipal(context.Background(), &auth.Principal{ID: "u-9"})
	p.Publish(ctx, EntityExpense, ActionApproved, 12, map[string]string{"status": "approved"})

	require.Len(t, client.sent, 1)
	msg := client.sent[0]
	assert.Equal(t, "expense-12", msg.key)
	assert.Equal(t, "expense.approved", msg.headers["event-type"])

	evt, err := Decode(msg.value)
	require.NoError(t, err)
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, EntityExpense, evt.Entity)
	assert.Equal(t, ActionApproved, evt.Action)
	assert.Equal(t, int64(12), evt.EntityID)
	assert.Equal(t, "u-9", evt.Actor)
	assert.True(t, fixed.Equal(evt.OccurredAt))
	assert.JSONEq(t, `{"status":"approved"}`, string(evt.Payload))
}

func TestBusPublisherSwallowsErrors(t *testing.T) {
	client := &recordingClient{err: errors.New("broker down")}
	p := NewBusPublisher(client, nil)

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), EntityTransaction, ActionDeleted, 3, nil)
	})
	require.Len(t, client.sent, 1)

	evt, err := Decode(client.sent[0].value)
	require.NoError(t, err)
	assert.Equal(t, auth.SystemActor, evt.Actor)
	assert.Empty(t, evt.Payload)
}

func TestDecodeRejectsIncompleteEnvelope(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"entity": "account"})
	_, err := Decode(raw)
	assert.Error(t, err)

	_, err = Decode([]byte("not json"))
	assert.Error(t, err)
}
