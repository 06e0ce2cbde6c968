package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/leafyhealth/accounting-management/internal/entity"
)

// JournalLineRequest is one debit or credit line.
type JournalLineRequest struct {
	AccountID int64           `json:"account_id" validate:"required,gt=0"`
	Debit     decimal.Decimal `json:"debit" validate:"gte=0,money"`
	Credit    decimal.Decimal `json:"credit" validate:"gte=0,money"`
	Memo      string          `json:"memo" validate:"max=255"`
}

// CreateJournalEntryRequest is the payload for POST /journal-entries. An empty
// entry number is generated.
type CreateJournalEntryRequest struct {
	EntryNumber string               `json:"entry_number" validate:"omitempty,max=32"`
	Description string               `json:"description" validate:"max=1000"`
	EntryDate   *Date                `json:"entry_date"`
	Lines       []JournalLineRequest `json:"lines" validate:"dive"`
}

// JournalListQuery filters GET /journal-entries.
type JournalListQuery struct {
	ListQuery
	Status string `query:"status" validate:"omitempty,oneof=draft posted"`
}

// JournalLineResponse is a line as exposed via transport layers.
type JournalLineResponse struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo"`
}

// JournalEntryResponse is an entry as exposed via transport layers.
type JournalEntryResponse struct {
	ID          int64                 `json:"id"`
	EntryNumber string                `json:"entry_number"`
	Description string                `json:"description"`
	EntryDate   time.Time             `json:"entry_date"`
	Status      string                `json:"status"`
	PostedAt    *time.Time            `json:"posted_at"`
	CreatedBy   string                `json:"created_by"`
	TotalDebit  decimal.Decimal       `json:"total_debit"`
	TotalCredit decimal.Decimal       `json:"total_credit"`
	Lines       []JournalLineResponse `json:"lines,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// NewJournalEntryResponse maps an entity, including loaded lines.
func NewJournalEntryResponse(e *entity.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:          e.ID,
		EntryNumber: e.EntryNumber,
		Description: e.Description,
		EntryDate:   e.EntryDate,
		Status:      e.Status,
		PostedAt:    e.PostedAt,
		CreatedBy:   e.CreatedBy,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, l := range e.Lines {
		resp.TotalDebit = resp.TotalDebit.Add(l.Debit)
		resp.TotalCredit = resp.TotalCredit.Add(l.Credit)
		resp.Lines = append(resp.Lines, JournalLineResponse{
			ID:        l.ID,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Memo:      l.Memo,
		})
	}
	return resp
}

// NewJournalEntryResponses maps a page of entries.
func NewJournalEntryResponses(items []entity.JournalEntry) []JournalEntryResponse {
	out := make([]JournalEntryResponse, 0, len(items))
	for i := range items {
		out = append(out, NewJournalEntryResponse(&items[i]))
	}
	return out
}
