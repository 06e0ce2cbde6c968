package audit

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/cache"
	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/event"
	"github.com/leafyhealth/accounting-management/internal/messaging"
	"github.com/leafyhealth/accounting-management/internal/observability"
	auditsvc "github.com/leafyhealth/accounting-management/internal/service/audit"
	"github.com/leafyhealth/accounting-management/internal/service/report"
	"github.com/leafyhealth/accounting-management/internal/worker"
)

var workerTracer = otel.Tracer("github.com/leafyhealth/accounting-management/worker/audit")

// Module registers the audit trail consumer.
var Module = fx.Module("worker_audit",
	fx.Provide(
		fx.Annotate(
			NewEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Recorder stores one consumed event.
type Recorder interface {
	Record(ctx context.Context, evt event.Event) (bool, error)
}

// Params collects the handler dependencies.
type Params struct {
	fx.In

	Audit   *auditsvc.Service
	Cache   cache.Store
	Config  config.Config
	Logger  *zap.Logger
	Metrics *observability.Recorder `optional:"true"`
}

// NewEventHandler registers the audit consumer on the configured topic.
func NewEventHandler(p Params) worker.HandlerRegistration {
	return worker.HandlerRegistration{
		Topic:   p.Config.Messaging.Kafka.Topic,
		Handler: Handle(p.Audit, p.Cache, p.Metrics, p.Logger),
	}
}

// Handle records every event in the audit trail. Transaction and expense
// events also drop cached reports. Undecodable messages are logged and
// acknowledged.
func Handle(rec Recorder, store cache.Store, metrics *observability.Recorder, logger *zap.Logger) messaging.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.Noop()
	}
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.audit.process", trace.WithSpanKind(trace.SpanKindConsumer), trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		evt, err := event.Decode(msg.Value)
		if err != nil {
			logger.Error("discarding undecodable event", zap.Error(err), zap.Int64("offset", msg.Offset))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			metrics.Event(ctx, "invalid", false)
			return nil
		}
		span.SetAttributes(attribute.String("event.type", evt.Type), attribute.String("event.id", evt.ID))

		recorded, err := rec.Record(ctx, evt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "record failed")
			return err
		}
		metrics.Event(ctx, evt.Type, recorded)

		switch evt.Entity {
		case event.EntityTransaction, event.EntityExpense:
			if err := report.Invalidate(ctx, store); err != nil {
				logger.Warn("report cache invalidation failed", zap.Error(err))
			}
		}

		logger.Info("event audited",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type),
			zap.Int64("entity_id", evt.EntityID),
			zap.Bool("recorded", recorded),
		)
		return nil
	}
}
