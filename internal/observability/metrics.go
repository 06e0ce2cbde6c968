package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
)

const meterName = "github.com/leafyhealth/accounting-management"

// MetricsModule provides the business metrics Recorder.
var MetricsModule = fx.Provide(NewRecorder)

// Recorder counts domain writes, report generations and consumed events.
// A nil *Recorder records nothing.
type Recorder struct {
	writes  metric.Int64Counter
	reports metric.Int64Counter
	events  metric.Int64Counter
}

// NewRecorder registers the counters on the manager's meter.
func NewRecorder(mgr *Manager) (*Recorder, error) {
	meter := mgr.Meter(meterName)

	writes, err := meter.Int64Counter("accounting.entity.writes",
		metric.WithDescription("Entity writes by entity and action"))
	if err != nil {
		return nil, err
	}
	reports, err := meter.Int64Counter("accounting.reports.generated",
		metric.WithDescription("Reports served, split by cache hit"))
	if err != nil {
		return nil, err
	}
	events, err := meter.Int64Counter("accounting.events.consumed",
		metric.WithDescription("Domain events consumed by the audit worker"))
	if err != nil {
		return nil, err
	}

	return &Recorder{writes: writes, reports: reports, events: events}, nil
}

// Write counts one write of entity with action.
func (r *Recorder) Write(ctx context.Context, entity, action string) {
	if r == nil {
		return
	}
	r.writes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("action", action),
	))
}

// Report counts one served report.
func (r *Recorder) Report(ctx context.Context, name string, cached bool) {
	if r == nil {
		return
	}
	r.reports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("report", name),
		attribute.Bool("cached", cached),
	))
}

// Event counts one consumed event and whether it was newly recorded.
func (r *Recorder) Event(ctx context.Context, eventType string, recorded bool) {
	if r == nil {
		return
	}
	r.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.Bool("recorded", recorded),
	))
}
