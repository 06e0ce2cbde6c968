package audit

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/event"
	repo "github.com/leafyhealth/accounting-management/internal/repository/audit"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/leafyhealth/accounting-management/service/audit")

// Service records domain events and serves the audit trail.
type Service struct {
	repo   repo.Store
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(store repo.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: store, logger: logger}
}

// Record stores evt once; redelivered events report false.
func (s *Service) Record(ctx context.Context, evt event.Event) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "AuditService.Record", trace.WithAttributes(
		attribute.String("event.id", evt.ID),
		attribute.String("event.type", evt.Type),
	))
	defer span.End()

	log := &entity.AuditLog{
		EventID:    evt.ID,
		Entity:     evt.Entity,
		EntityID:   evt.EntityID,
		Action:     evt.Action,
		Actor:      evt.Actor,
		OccurredAt: evt.OccurredAt,
	}
	if len(evt.Payload) > 0 {
		var payload map[string]any
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			// non-object payloads are kept under a single key
			var raw any
			if err := json.Unmarshal(evt.Payload, &raw); err == nil {
				payload = map[string]any{"value": raw}
			}
		}
		log.Payload = payload
	}

	inserted, err := s.repo.Record(ctx, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return false, err
	}
	if !inserted {
		s.logger.Debug("duplicate event ignored", zap.String("event_id", evt.ID))
	}
	return inserted, nil
}

// List returns one page of audit records matching q, newest first.
func (s *Service) List(ctx context.Context, q dto.AuditListQuery) ([]entity.AuditLog, int, error) {
	ctx, span := serviceTracer.Start(ctx, "AuditService.List")
	defer span.End()

	filters := make([]crud.Filter, 0, 3)
	if q.Entity != "" {
		filters = append(filters, crud.WhereEq("entity", q.Entity))
	}
	if q.EntityID > 0 {
		filters = append(filters, crud.WhereEq("entity_id", q.EntityID))
	}
	if q.Action != "" {
		filters = append(filters, crud.WhereEq("action", q.Action))
	}

	items, total, err := s.repo.List(ctx, crud.ListOptions{Limit: q.Limit, Offset: q.Offset, Filter: crud.Chain(filters...)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list audit logs", errorbank.WithCause(err))
	}
	return items, total, nil
}
