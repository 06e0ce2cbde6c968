package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/leafyhealth/accounting-management/internal/entity"
)

// CreateTransactionRequest is the payload for POST /transactions.
type CreateTransactionRequest struct {
	Type            entity.AccountType `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	Category        string             `json:"category" validate:"max=100"`
	Amount          decimal.Decimal    `json:"amount" validate:"required,gt=0,money"`
	Description     string             `json:"description" validate:"max=1000"`
	Reference       string             `json:"reference" validate:"max=100"`
	AccountID       *int64             `json:"account_id" validate:"omitempty,gt=0"`
	TransactionDate *Date              `json:"transaction_date"`
	Status          string             `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
}

// UpdateTransactionRequest is the payload for PUT /transactions/:id. Nil fields are left unchanged.
type UpdateTransactionRequest struct {
	Type            *entity.AccountType `json:"type" validate:"omitempty,oneof=asset liability equity revenue expense"`
	Category        *string             `json:"category" validate:"omitempty,max=100"`
	Amount          *decimal.Decimal    `json:"amount" validate:"omitempty,gt=0,money"`
	Description     *string             `json:"description" validate:"omitempty,max=1000"`
	Reference       *string             `json:"reference" validate:"omitempty,max=100"`
	AccountID       *int64              `json:"account_id" validate:"omitempty,gt=0"`
	TransactionDate *Date               `json:"transaction_date"`
	Status          *string             `json:"status" validate:"omitempty,oneof=pending completed cancelled"`
}

// TransactionListQuery filters GET /transactions.
type TransactionListQuery struct {
	ListQuery
	RangeQuery
	Type     string `query:"type" validate:"omitempty,oneof=asset liability equity revenue expense"`
	Status   string `query:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Category string `query:"category"`
}

// TransactionResponse represents a transaction as exposed via transport layers.
type TransactionResponse struct {
	ID              int64              `json:"id"`
	Type            entity.AccountType `json:"type"`
	Category        string             `json:"category"`
	Amount          decimal.Decimal    `json:"amount"`
	Description     string             `json:"description"`
	Reference       string             `json:"reference"`
	AccountID       *int64             `json:"account_id"`
	TransactionDate time.Time          `json:"transaction_date"`
	Status          string             `json:"status"`
	CreatedBy       string             `json:"created_by"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewTransactionResponse maps an entity to its response shape.
func NewTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		Type:            t.Type,
		Category:        t.Category,
		Amount:          t.Amount,
		Description:     t.Description,
		Reference:       t.Reference,
		AccountID:       t.AccountID,
		TransactionDate: t.TransactionDate,
		Status:          t.Status,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// NewTransactionResponses maps a page of transactions.
func NewTransactionResponses(items []entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(items))
	for i := range items {
		out = append(out, NewTransactionResponse(&items[i]))
	}
	return out
}
