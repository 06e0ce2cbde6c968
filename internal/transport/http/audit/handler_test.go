package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
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

func (m *mockService) List(ctx context.Context, q dto.AuditListQuery) ([]entity.AuditLog, int, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]entity.AuditLog)
	return items, args.Int(1), args.Error(2)
}

func TestList(t *testing.T) {
	e := echo.New()
	e.Validator = validation.New()
	svc := new(mockService)
	Register(e.Group("/accounting-management"), NewHandler(svc, config.Pagination{DefaultLimit: 50, MaxLimit: 200}))

	svc.On("List", mock.Anything, mock.MatchedBy(func(q dto.AuditListQuery) bool {
		return q.Entity == "expense" && q.EntityID == 4 && q.Limit == 50
	})).Return([]entity.AuditLog{{ID: 1, EventID: "evt-1", Entity: "expense", EntityID: 4, Action: "approved"}}, 1, nil)
	svc.On("List", mock.Anything, mock.Anything).Return(nil, 0, errorbank.Internal("failed to list audit logs", errorbank.WithCause(errors.New("db down"))))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounting-management/audit-logs?entity=expense&entity_id=4", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"event_id":"evt-1"`)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounting-management/audit-logs", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}
