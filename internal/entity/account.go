package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// AccountType classifies a chart-of-accounts entry.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Record statuses shared by accounts.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Account is a node in the chart of accounts.
type Account struct {
	bun.BaseModel `bun:"table:chart_of_accounts,alias:a"`

	ID          int64       `bun:",pk,autoincrement" json:"id"`
	Code        string      `bun:"code,notnull,unique" json:"code"`
	Name        string      `bun:"name,notnull" json:"name"`
	Type        AccountType `bun:"type,notnull" json:"type"`
	ParentID    *int64      `bun:"parent_id" json:"parent_id,omitempty"`
	Description string      `bun:"description" json:"description"`
	Status      string      `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt   time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time   `bun:"updated_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"updated_at"`
}
