package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Transaction statuses.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusCancelled = "cancelled"
)

// Transaction is a single ledger movement. Type uses the account type
// vocabulary so reports can group by it directly.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID              int64           `bun:",pk,autoincrement" json:"id"`
	Type            AccountType     `bun:"type,notnull" json:"type"`
	Category        string          `bun:"category" json:"category"`
	Amount          decimal.Decimal `bun:"amount,type:numeric(14,2),notnull" json:"amount"`
	Description     string          `bun:"description" json:"description"`
	Reference       string          `bun:"reference" json:"reference"`
	AccountID       *int64          `bun:"account_id" json:"account_id,omitempty"`
	TransactionDate time.Time       `bun:"transaction_date,notnull" json:"transaction_date"`
	Status          string          `bun:"status,notnull,default:'completed'" json:"status"`
	CreatedBy       string          `bun:"created_by" json:"created_by"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"updated_at"`
}
