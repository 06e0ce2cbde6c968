package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Expense statuses.
const (
	ExpenseStatusPending  = "pending"
	ExpenseStatusApproved = "approved"
	ExpenseStatusRejected = "rejected"
	ExpenseStatusPaid     = "paid"
)

// Expense is an operating cost awaiting or past approval.
type Expense struct {
	bun.BaseModel `bun:"table:expenses,alias:e"`

	ID            int64           `bun:",pk,autoincrement" json:"id"`
	Category      string          `bun:"category,notnull" json:"category"`
	Amount        decimal.Decimal `bun:"amount,type:numeric(14,2),notnull" json:"amount"`
	Description   string          `bun:"description" json:"description"`
	Vendor        string          `bun:"vendor" json:"vendor"`
	PaymentMethod string          `bun:"payment_method" json:"payment_method"`
	ExpenseDate   time.Time       `bun:"expense_date,notnull" json:"expense_date"`
	Status        string          `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedBy     string          `bun:"created_by" json:"created_by"`
	ApprovedBy    string          `bun:"approved_by" json:"approved_by"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"updated_at"`
}
