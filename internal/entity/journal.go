package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Journal entry statuses.
const (
	JournalStatusDraft  = "draft"
	JournalStatusPosted = "posted"
)

// JournalEntry groups balanced debit/credit lines.
type JournalEntry struct {
	bun.BaseModel `bun:"table:journal_entries,alias:je"`

	ID          int64          `bun:",pk,autoincrement" json:"id"`
	EntryNumber string         `bun:"entry_number,notnull,unique" json:"entry_number"`
	Description string         `bun:"description" json:"description"`
	EntryDate   time.Time      `bun:"entry_date,notnull" json:"entry_date"`
	Status      string         `bun:"status,notnull,default:'draft'" json:"status"`
	PostedAt    *time.Time     `bun:"posted_at" json:"posted_at,omitempty"`
	CreatedBy   string         `bun:"created_by" json:"created_by"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"updated_at"`
	Lines       []*JournalLine `bun:"rel:has-many,join:id=journal_entry_id" json:"lines"`
}

// JournalLine is one side of a journal entry against an account.
type JournalLine struct {
	bun.BaseModel `bun:"table:journal_lines,alias:jl"`

	ID             int64           `bun:",pk,autoincrement" json:"id"`
	JournalEntryID int64           `bun:"journal_entry_id,notnull" json:"journal_entry_id"`
	AccountID      int64           `bun:"account_id,notnull" json:"account_id"`
	Debit          decimal.Decimal `bun:"debit,type:numeric(14,2),notnull" json:"debit"`
	Credit         decimal.Decimal `bun:"credit,type:numeric(14,2),notnull" json:"credit"`
	Memo           string          `bun:"memo" json:"memo"`
}
