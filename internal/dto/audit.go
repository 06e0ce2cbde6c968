package dto

import (
	"time"

	"github.com/leafyhealth/accounting-management/internal/entity"
)

// AuditListQuery filters GET /audit-logs.
type AuditListQuery struct {
	ListQuery
	Entity   string `query:"entity" validate:"omitempty,max=64"`
	EntityID int64  `query:"entity_id" validate:"gte=0"`
	Action   string `query:"action" validate:"omitempty,max=32"`
}

// AuditLogResponse is an audit record as exposed via transport layers.
type AuditLogResponse struct {
	ID         int64          `json:"id"`
	EventID    string         `json:"event_id"`
	Entity     string         `json:"entity"`
	EntityID   int64          `json:"entity_id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewAuditLogResponses maps a page of audit logs.
func NewAuditLogResponses(items []entity.AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(items))
	for _, l := range items {
		out = append(out, AuditLogResponse{
			ID:         l.ID,
			EventID:    l.EventID,
			Entity:     l.Entity,
			EntityID:   l.EntityID,
			Action:     l.Action,
			Actor:      l.Actor,
			Payload:    l.Payload,
			OccurredAt: l.OccurredAt,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out
}
