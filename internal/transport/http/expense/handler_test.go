package expense

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

func (m *mockService) expense(args mock.Arguments) (*entity.Expense, error) {
	exp, _ := args.Get(0).(*entity.Expense)
	return exp, args.Error(1)
}

func (m *mockService) Create(ctx context.Context, req dto.CreateExpenseRequest) (*entity.Expense, error) {
	return m.expense(m.Called(ctx, req))
}

func (m *mockService) List(ctx context.Context, q dto.ExpenseListQuery) ([]entity.Expense, int, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]entity.Expense)
	return items, args.Int(1), args.Error(2)
}

func (m *mockService) Get(ctx context.Context, id int64) (*entity.Expense, error) {
	return m.expense(m.Called(ctx, id))
}

func (m *mockService) Update(ctx context.Context, id int64, req dto.UpdateExpenseRequest) (*entity.Expense, error) {
	return m.expense(m.Called(ctx, id, req))
}

func (m *mockService) Approve(ctx context.Context, id int64) (*entity.Expense, error) {
	return m.expense(m.Called(ctx, id))
}

func (m *mockService) Reject(ctx context.Context, id int64) (*entity.Expense, error) {
	return m.expense(m.Called(ctx, id))
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

func TestCreatePending(t *testing.T) {
	e, svc := setup()
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req dto.CreateExpenseRequest) bool {
		return req.Category == "utilities" && req.Amount.Equal(decimal.NewFromInt(80))
	})).Return(&entity.Expense{ID: 2, Category: "utilities", Amount: decimal.NewFromInt(80), Status: entity.ExpenseStatusPending}, nil)

	rec := do(e, http.MethodPost, "/accounting-management/expenses", `{"category":"utilities","amount":80}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
}

func TestUpdateOnlyAcceptsPaidStatus(t *testing.T) {
	e, svc := setup()

	rec := do(e, http.MethodPut, "/accounting-management/expenses/2", `{"status":"approved"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveAndReject(t *testing.T) {
	e, svc := setup()
	svc.On("Approve", mock.Anything, int64(2)).Return(&entity.Expense{ID: 2, Status: entity.ExpenseStatusApproved, ApprovedBy: "u-7"}, nil)
	svc.On("Reject", mock.Anything, int64(2)).Return(nil, errorbank.Conflict("expense is approved, not pending"))

	rec := do(e, http.MethodPost, "/accounting-management/expenses/2/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"approved_by":"u-7"`)
	assert.Contains(t, rec.Body.String(), "expense approved")

	rec = do(e, http.MethodPost, "/accounting-management/expenses/2/reject", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListAndDelete(t *testing.T) {
	e, svc := setup()
	svc.On("List", mock.Anything, mock.MatchedBy(func(q dto.ExpenseListQuery) bool {
		return q.Status == "pending" && q.Limit == 5
	})).Return([]entity.Expense{{ID: 1}, {ID: 2}}, 2, nil)
	svc.On("Delete", mock.Anything, int64(1)).Return(errorbank.NotFound("expense not found"))

	rec := do(e, http.MethodGet, "/accounting-management/expenses?status=pending&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":2`)

	rec = do(e, http.MethodGet, "/accounting-management/expenses?status=void", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodDelete, "/accounting-management/expenses/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
