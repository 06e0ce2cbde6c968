package dto

import (
	"time"

	"github.com/leafyhealth/accounting-management/internal/entity"
)

// CreateAccountRequest is the payload for POST /accounts.
type CreateAccountRequest struct {
	Code        string             `json:"code" validate:"required,max=32"`
	Name        string             `json:"name" validate:"required,max=255"`
	Type        entity.AccountType `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	ParentID    *int64             `json:"parent_id" validate:"omitempty,gt=0"`
	Description string             `json:"description" validate:"max=1000"`
	Status      string             `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateAccountRequest is the payload for PUT /accounts/:id. Nil fields are left unchanged.
type UpdateAccountRequest struct {
	Code        *string             `json:"code" validate:"omitempty,min=1,max=32"`
	Name        *string             `json:"name" validate:"omitempty,min=1,max=255"`
	Type        *entity.AccountType `json:"type" validate:"omitempty,oneof=asset liability equity revenue expense"`
	ParentID    *int64              `json:"parent_id" validate:"omitempty,gt=0"`
	Description *string             `json:"description" validate:"omitempty,max=1000"`
	Status      *string             `json:"status" validate:"omitempty,oneof=active inactive"`
}

// AccountListQuery filters GET /accounts.
type AccountListQuery struct {
	ListQuery
	Type     string `query:"type" validate:"omitempty,oneof=asset liability equity revenue expense"`
	Status   string `query:"status" validate:"omitempty,oneof=active inactive"`
	ParentID *int64 `query:"parent_id" validate:"omitempty,gt=0"`
}

// AccountResponse represents an account as exposed via transport layers.
type AccountResponse struct {
	ID          int64              `json:"id"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Type        entity.AccountType `json:"type"`
	ParentID    *int64             `json:"parent_id"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewAccountResponse maps an entity to its response shape.
func NewAccountResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Type:        a.Type,
		ParentID:    a.ParentID,
		Description: a.Description,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// NewAccountResponses maps a page of accounts.
func NewAccountResponses(items []entity.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(items))
	for i := range items {
		out = append(out, NewAccountResponse(&items[i]))
	}
	return out
}
