package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSheetQuery selects the cut-off date of a balance sheet.
type BalanceSheetQuery struct {
	AsOf *Date `query:"as_of"`
}

// ProfitLossReport summarises revenue against expenses.
type ProfitLossReport struct {
	From         *time.Time      `json:"from,omitempty"`
	To           *time.Time      `json:"to,omitempty"`
	Revenue      decimal.Decimal `json:"revenue"`
	Expenses     decimal.Decimal `json:"expenses"`
	Profit       decimal.Decimal `json:"profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// BalanceSheetReport summarises assets against liabilities.
type BalanceSheetReport struct {
	AsOf        *time.Time      `json:"as_of,omitempty"`
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ExpenseCategoryTotal is one row of the expense summary.
type ExpenseCategoryTotal struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// ExpenseSummaryReport totals expenses per category.
type ExpenseSummaryReport struct {
	From        *time.Time             `json:"from,omitempty"`
	To          *time.Time             `json:"to,omitempty"`
	Categories  []ExpenseCategoryTotal `json:"categories"`
	Total       decimal.Decimal        `json:"total"`
	GeneratedAt time.Time              `json:"generated_at"`
}
