package transaction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/validation"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Create(ctx context.Context, req dto.CreateTransactionRequest) (*entity.Transaction, error) {
	args := m.Called(ctx, req)
	tx, _ := args.Get(0).(*entity.Transaction)
	return tx, args.Error(1)
}

func (m *mockService) List(ctx context.Context, q dto.TransactionListQuery) ([]entity.Transaction, int, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]entity.Transaction)
	return items, args.Int(1), args.Error(2)
}

func (m *mockService) Get(ctx context.Context, id int64) (*entity.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*entity.Transaction)
	return tx, args.Error(1)
}

func (m *mockService) Update(ctx context.Context, id int64, req dto.UpdateTransactionRequest) (*entity.Transaction, error) {
	args := m.Called(ctx, id, req)
	tx, _ := args.Get(0).(*entity.Transaction)
	return tx, args.Error(1)
}

func (m *mockService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func setup() (*echo.Echo, *mockService) {
	e := echo.New()
	e.Validator = validation.New()
	svc := new(mockService)
	Register(e.Group("/accounting-management"), NewHandler(svc, config.Pagination{DefaultLimit: 50, MaxLimit: 200}))
	return e, svc
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	e, svc := setup()
	day := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req dto.CreateTransactionRequest) bool {
		return req.Amount.Equal(decimal.RequireFromString("125.50")) &&
			req.TransactionDate != nil && req.TransactionDate.Time().Equal(day)
	})).Return(&entity.Transaction{
		ID: 7, Type: entity.AccountTypeRevenue, Amount: decimal.RequireFromString("125.50"),
		Status: entity.TransactionStatusCompleted, TransactionDate: day,
	}, nil)

	rec := do(e, http.MethodPost, "/accounting-management/transactions",
		`{"type":"revenue","category":"sales","amount":"125.50","transaction_date":"2026-06-30"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var env struct {
		Success bool                    `json:"success"`
		Data    dto.TransactionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, int64(7), env.Data.ID)
	assert.Equal(t, "125.5", env.Data.Amount.String())
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	e, svc := setup()

	for _, body := range []string{
		`{"type":"revenue","amount":"0"}`,
		`{"type":"revenue","amount":"-5"}`,
		`{"type":"revenue"}`,
	} {
		rec := do(e, http.MethodPost, "/accounting-management/transactions", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), `"amount"`, body)
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateMalformedJSON(t *testing.T) {
	e, _ := setup()

	rec := do(e, http.MethodPost, "/accounting-management/transactions", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestListFilters(t *testing.T) {
	e, svc := setup()
	svc.On("List", mock.Anything, mock.MatchedBy(func(q dto.TransactionListQuery) bool {
		return q.Limit == 50 && q.Type == "expense" && q.From != nil && q.To != nil
	})).Return([]entity.Transaction{}, 0, nil)

	rec := do(e, http.MethodGet, "/accounting-management/transactions?type=expense&from=2026-01-01&to=2026-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[],"meta":{"total":0,"limit":50,"offset":0}}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestUpdateAndDelete(t *testing.T) {
	e, svc := setup()
	svc.On("Update", mock.Anything, int64(5), mock.Anything).Return(nil, errorbank.NotFound("transaction not found"))
	svc.On("Delete", mock.Anything, int64(5)).Return(nil)

	rec := do(e, http.MethodPut, "/accounting-management/transactions/5", `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodDelete, "/accounting-management/transactions/5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "transaction deleted")
}
