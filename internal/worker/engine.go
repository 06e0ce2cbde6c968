package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds message topics to handlers.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine runs the ledger event consumers. Each consumer routes a message to
// the handler registered for its topic, retrying failed deliveries up to
// Worker.MaxAttempts before leaving the offset uncommitted.
type Engine struct {
	client messaging.Client
	logger *zap.Logger
	tracer trace.Tracer
	cfg    config.Worker
	group  string
	routes map[string]messaging.Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	routes := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		routes[r.Topic] = r.Handler
	}

	cfg := p.Config.Messaging.Workers
	if !p.Config.Messaging.Enabled {
		cfg.Enabled = false
	}

	return &Engine{
		client: p.Client,
		logger: p.Logger.Named("worker"),
		tracer: otel.Tracer("github.com/leafyhealth/accounting-management/internal/worker"),
		cfg:    cfg,
		group:  p.Config.Messaging.ConsumerGroup,
		routes: routes,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(context.Context) error {
	if !e.cfg.Enabled {
		e.logger.Info("ledger event consumers disabled")
		return nil
	}
	if len(e.routes) == 0 {
		e.logger.Info("no ledger event handlers registered")
		return nil
	}

	consumers := max(e.cfg.Concurrency, 1)

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for id := range consumers {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.run(runCtx, id)
		}()
	}

	topics := make([]string, 0, len(e.routes))
	for topic := range e.routes {
		topics = append(topics, topic)
	}
	e.logger.Info("ledger event consumers started",
		zap.Int("consumers", consumers),
		zap.String("group", e.group),
		zap.Strings("topics", topics),
	)
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	drained := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(drained)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-drained:
		e.logger.Info("ledger event consumers stopped")
		return nil
	}
}

// run keeps one consumer attached to the bus, reconnecting with exponential
// backoff when the client gives up.
func (e *Engine) run(ctx context.Context, id int) {
	wait := e.pollInterval()
	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, id, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consumer detached", zap.Int("consumer", id), zap.Duration("retry_in", wait), zap.Error(err))
		if !sleep(ctx, wait) {
			return
		}
		wait = min(wait*2, maxBackoff)
	}
}

// dispatch delivers msg to its topic handler inside a consumer span linked to
// the producer's trace. Unrouted topics are acknowledged and skipped.
func (e *Engine) dispatch(ctx context.Context, consumer int, msg messaging.Message) error {
	handler, ok := e.routes[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset))
		return nil
	}

	if len(msg.Headers) > 0 {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Headers))
	}
	ctx, span := e.tracer.Start(ctx, msg.Topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.consumer.group.name", e.group),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	attempts := max(e.cfg.MaxAttempts, 1)
	wait := e.pollInterval()

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = invoke(ctx, handler, msg); err == nil {
			e.logger.Debug("ledger event handled",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Int("consumer", consumer),
				zap.Int("attempt", attempt),
			)
			return nil
		}

		e.logger.Warn("ledger event handler failed",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
		if attempt == attempts || !sleep(ctx, wait) {
			break
		}
		wait = min(wait*2, maxBackoff)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (e *Engine) pollInterval() time.Duration {
	if e.cfg.PollInterval <= 0 {
		return time.Second
	}
	return e.cfg.PollInterval
}

// invoke runs handler, turning a panic into an error so one bad event
// cannot take the consumer down.
func invoke(ctx context.Context, handler messaging.Handler, msg messaging.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic on %s@%d: %v", msg.Topic, msg.Offset, r)
		}
	}()
	return handler(ctx, msg)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
