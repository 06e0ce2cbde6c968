package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/leafyhealth/accounting-management/internal/entity"
)

// CreateExpenseRequest is the payload for POST /expenses.
type CreateExpenseRequest struct {
	Category      string          `json:"category" validate:"required,max=100"`
	Amount        decimal.Decimal `json:"amount" validate:"required,gt=0,money"`
	Description   string          `json:"description" validate:"max=1000"`
	Vendor        string          `json:"vendor" validate:"max=255"`
	PaymentMethod string          `json:"payment_method" validate:"max=50"`
	ExpenseDate   *Date           `json:"expense_date"`
}

// UpdateExpenseRequest is the payload for PUT /expenses/:id. Nil fields are
// left unchanged. Status may only move an approved expense to paid.
type UpdateExpenseRequest struct {
	Category      *string          `json:"category" validate:"omitempty,min=1,max=100"`
	Amount        *decimal.Decimal `json:"amount" validate:"omitempty,gt=0,money"`
	Description   *string          `json:"description" validate:"omitempty,max=1000"`
	Vendor        *string          `json:"vendor" validate:"omitempty,max=255"`
	PaymentMethod *string          `json:"payment_method" validate:"omitempty,max=50"`
	ExpenseDate   *Date            `json:"expense_date"`
	Status        *string          `json:"status" validate:"omitempty,oneof=paid"`
}

// ExpenseListQuery filters GET /expenses.
type ExpenseListQuery struct {
	ListQuery
	RangeQuery
	Status   string `query:"status" validate:"omitempty,oneof=pending approved rejected paid"`
	Category string `query:"category"`
}

// ExpenseResponse represents an expense as exposed via transport layers.
type ExpenseResponse struct {
	ID            int64           `json:"id"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Vendor        string          `json:"vendor"`
	PaymentMethod string          `json:"payment_method"`
	ExpenseDate   time.Time       `json:"expense_date"`
	Status        string          `json:"status"`
	CreatedBy     string          `json:"created_by"`
	ApprovedBy    string          `json:"approved_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewExpenseResponse maps an entity to its response shape.
func NewExpenseResponse(e *entity.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		Category:      e.Category,
		Amount:        e.Amount,
		Description:   e.Description,
		Vendor:        e.Vendor,
		PaymentMethod: e.PaymentMethod,
		ExpenseDate:   e.ExpenseDate,
		Status:        e.Status,
		CreatedBy:     e.CreatedBy,
		ApprovedBy:    e.ApprovedBy,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// NewExpenseResponses maps a page of expenses.
func NewExpenseResponses(items []entity.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(items))
	for i := range items {
		out = append(out, NewExpenseResponse(&items[i]))
	}
	return out
}
