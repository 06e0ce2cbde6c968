package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditLog records one domain event observed on the bus.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64          `bun:",pk,autoincrement" json:"id"`
	EventID    string         `bun:"event_id,notnull,unique" json:"event_id"`
	Entity     string         `bun:"entity,notnull" json:"entity"`
	EntityID   int64          `bun:"entity_id,notnull" json:"entity_id"`
	Action     string         `bun:"action,notnull" json:"action"`
	Actor      string         `bun:"actor" json:"actor"`
	Payload    map[string]any `bun:"payload,type:jsonb" json:"payload,omitempty"`
	OccurredAt time.Time      `bun:"occurred_at,notnull" json:"occurred_at"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
