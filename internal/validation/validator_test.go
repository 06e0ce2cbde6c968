package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

func fieldsOf(t *testing.T, err error) map[string]any {
	t.Helper()
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	fields, ok := appErr.Details()["fields"].(map[string]any)
	require.True(t, ok)
	return fields
}

func TestValidateTransaction(t *testing.T) {
	v := New()

	ok := dto.CreateTransactionRequest{Type: "revenue", Amount: decimal.RequireFromString("10.50")}
	assert.NoError(t, v.Validate(&ok))

	bad := dto.CreateTransactionRequest{Type: "income", Amount: decimal.RequireFromString("-1")}
	fields := fieldsOf(t, v.Validate(&bad))
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "amount")
}

func TestValidateZeroAmountIsRequired(t *testing.T) {
	v := New()
	fields := fieldsOf(t, v.Validate(&dto.CreateExpenseRequest{Category: "rent"}))
	assert.Equal(t, "is required", fields["amount"])
}

func TestValidatePointerFieldsOnlyWhenSet(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&dto.UpdateTransactionRequest{}))

	neg := decimal.RequireFromString("0")
	fields := fieldsOf(t, v.Validate(&dto.UpdateTransactionRequest{Amount: &neg}))
	assert.Contains(t, fields, "amount")
}

func TestValidateNestedLines(t *testing.T) {
	v := New()
	req := dto.CreateJournalEntryRequest{
		Lines: []dto.JournalLineRequest{
			{AccountID: 1, Debit: decimal.NewFromInt(5)},
			{AccountID: 0, Credit: decimal.NewFromInt(-5)},
		},
	}
	fields := fieldsOf(t, v.Validate(&req))
	assert.Contains(t, fields, "lines[1].account_id")
	assert.Contains(t, fields, "lines[1].credit")
}

func TestValidateMoneyPrecision(t *testing.T) {
	v := New()

	for _, amount := range []string{"0.001", "10.555", "99999999999999.99", "1000000000000"} {
		t.Run(amount, func(t *testing.T) {
			req := dto.CreateTransactionRequest{Type: "revenue", Amount: decimal.RequireFromString(amount)}
			fields := fieldsOf(t, v.Validate(&req))
			assert.Equal(t, "must have at most 2 decimal places and be below 1000000000000", fields["amount"])
		})
	}

	ok := dto.CreateExpenseRequest{Category: "rent", Amount: decimal.RequireFromString("999999999999.99")}
	assert.NoError(t, v.Validate(&ok))

	third := decimal.RequireFromString("4.125")
	fields := fieldsOf(t, v.Validate(&dto.UpdateExpenseRequest{Amount: &third}))
	assert.Contains(t, fields, "amount")

	lines := dto.CreateJournalEntryRequest{Lines: []dto.JournalLineRequest{
		{AccountID: 1, Debit: decimal.RequireFromString("0.005")},
		{AccountID: 2, Credit: decimal.RequireFromString("0.01")},
	}}
	fields = fieldsOf(t, v.Validate(&lines))
	assert.Contains(t, fields, "lines[0].debit")
	assert.NotContains(t, fields, "lines[1].credit")
}

func TestBind(t *testing.T) {
	e := echo.New()
	e.Validator = New()

	newCtx := func(body string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return e.NewContext(req, httptest.NewRecorder())
	}

	var req dto.CreateExpenseRequest
	require.NoError(t, Bind(newCtx(`{"category":"rent","amount":"1200.00","expense_date":"2026-03-01"}`), &req))
	assert.Equal(t, "1200", req.Amount.String())
	require.NotNil(t, req.ExpenseDate)

	err := Bind(newCtx(`{"category":`), &dto.CreateExpenseRequest{})
	assert.True(t, errorbank.Is(err, errorbank.KindBadRequest))

	err = Bind(newCtx(`{"amount":"5"}`), &dto.CreateExpenseRequest{})
	assert.Contains(t, fieldsOf(t, err), "category")
}
