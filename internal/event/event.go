package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/auth"
	"github.com/leafyhealth/accounting-management/internal/messaging"
)

var publisherTracer = otel.Tracer("github.com/leafyhealth/accounting-management/event")

// Entities emitting events.
const (
	EntityAccount      = "account"
	EntityTransaction  = "transaction"
	EntityExpense      = "expense"
	EntityJournalEntry = "journal_entry"
)

// Actions recorded on events.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionApproved = "approved"
	ActionRejected = "rejected"
	ActionPosted   = "posted"
)

// Event is the envelope published for every write.
type Event struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"type"`
	Entity     string          `json:"entity"`
	Action     string          `json:"action"`
	EntityID   int64           `json:"entity_id"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Key partitions events of one record together.
func (e Event) Key() string {
	return fmt.Sprintf("%s-%d", e.Entity, e.EntityID)
}

// Decode parses a published event.
func Decode(raw []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return Event{}, err
	}
	if evt.ID == "" || evt.Entity == "" || evt.Action == "" {
		return Event{}, fmt.Errorf("incomplete event envelope")
	}
	return evt, nil
}

// Publisher emits domain events. Implementations never fail the caller.
type Publisher interface {
	Publish(ctx context.Context, entity, action string, id int64, payload any)
}

// Module provides the bus-backed Publisher.
var Module = fx.Provide(fx.Annotate(NewBusPublisher, fx.As(new(Publisher))))

// BusPublisher writes events to the message bus.
type BusPublisher struct {
	client messaging.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewBusPublisher wires a publisher on top of client.
func NewBusPublisher(client messaging.Client, logger *zap.Logger) *BusPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusPublisher{client: client, logger: logger, now: time.Now}
}

// Publish builds the envelope and writes it, logging failures.
func (p *BusPublisher) Publish(ctx context.Context, entity, action string, id int64, payload any) {
	if p == nil || p.client == nil {
		return
	}
	evt, err := p.build(ctx, entity, action, id, payload)
	if err != nil {
		p.logger.Error("encode event", zap.String("entity", entity), zap.String("action", action), zap.Error(err))
		return
	}

	ctx, span := publisherTracer.Start(ctx, "event.publish", trace.WithSpanKind(trace.SpanKindProducer), trace.WithAttributes(
		attribute.String("messaging.destination", p.client.Topic()),
		attribute.String("event.type", evt.Type),
		attribute.Int64("event.entity_id", id),
	))
	defer span.End()

	value, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("encode event", zap.String("type", evt.Type), zap.Error(err))
		return
	}

	headers := map[string]string{"event-type": evt.Type}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))

	if err := p.client.Publish(ctx, []byte(evt.Key()), value, headers); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		p.logger.Error("publish event", zap.String("type", evt.Type), zap.Int64("entity_id", id), zap.Error(err))
	}
}

func (p *BusPublisher) build(ctx context.Context, entity, action string, id int64, payload any) (Event, error) {
	evt := Event{
		ID:         uuid.NewString(),
		Type:       entity + "." + action,
		Entity:     entity,
		Action:     action,
		EntityID:   id,
		Actor:      auth.Actor(ctx),
		OccurredAt: p.now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		evt.Payload = raw
	}
	return evt, nil
}
