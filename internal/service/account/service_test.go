package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leafyhealth/accounting-management/internal/cache"
	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/dto"
	"github.com/leafyhealth/accounting-management/internal/entity"
	"github.com/leafyhealth/accounting-management/internal/event/eventtest"
	"github.com/leafyhealth/accounting-management/internal/repository/crud"
	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, acc *entity.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *mockStore) List(ctx context.Context, opts crud.ListOptions) ([]entity.Account, int, error) {
	args := m.Called(ctx, opts)
	items, _ := args.Get(0).([]entity.Account)
	return items, args.Int(1), args.Error(2)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*entity.Account)
	return acc, args.Error(1)
}

func (m *mockStore) GetByCode(ctx context.Context, code string) (*entity.Account, error) {
	args := m.Called(ctx, code)
	acc, _ := args.Get(0).(*entity.Account)
	return acc, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, acc *entity.Account, columns ...string) error {
	args := m.Called(ctx, acc, columns)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStore) HasChildren(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) IsReferenced(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newService(store *mockStore) (*Service, *eventtest.Recorder) {
	events := &eventtest.Recorder{}
	svc := NewService(Params{
		Repository: store,
		Cache:      cache.Memory(time.Minute),
		Config:     config.Config{Cache: config.Cache{DefaultTTL: time.Minute}},
		Publisher:  events,
	})
	svc.now = func() time.Time { return fixedNow }
	return svc, events
}

func TestCreate(t *testing.T) {
	store := new(mockStore)
	svc, events := newService(store)

	store.On("GetByCode", mock.Anything, "1000").Return(nil, crud.ErrNotFound)
	store.On("Create", mock.Anything, mock.AnythingOfType("*entity.Account")).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.Account).ID = 11 }).
		Return(nil)

	acc, err := svc.Create(context.Background(), dto.CreateAccountRequest{Code: "1000", Name: "Cash", Type: entity.AccountTypeAsset})
	require.NoError(t, err)
	assert.Equal(t, int64(11), acc.ID)
	assert.Equal(t, entity.StatusActive, acc.Status)
	assert.Equal(t, fixedNow, acc.CreatedAt)
	assert.Equal(t, []string{"account.created"}, events.Types())

	// served from cache without touching the store
	got, err := svc.Get(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, "Cash", got.Name)
	store.AssertNotCalled(t, "GetByID", mock.Anything, int64(11))
}

func TestCreateDuplicateCode(t *testing.T) {
	store := new(mockStore)
	svc, events := newService(store)

	store.On("GetByCode", mock.Anything, "1000").Return(&entity.Account{ID: 3, Code: "1000"}, nil)

	_, err := svc.Create(context.Background(), dto.CreateAccountRequest{Code: "1000", Name: "Cash", Type: entity.AccountTypeAsset})
	assert.True(t, errorbank.Is(err, errorbank.KindConflict))
	assert.Empty(t, events.Types())
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUnknownParent(t *testing.T) {
	store := new(mockStore)
	svc, _ := newService(store)
	parent := int64(99)

	store.On("GetByCode", mock.Anything, "1010").Return(nil, crud.ErrNotFound)
	store.On("GetByID", mock.Anything, parent).Return(nil, crud.ErrNotFound)

	_, err := svc.Create(context.Background(), dto.CreateAccountRequest{Code: "1010", Name: "Petty cash", Type: entity.AccountTypeAsset, ParentID: &parent})
	assert.True(t, errorbank.Is(err, errorbank.KindUnprocessableEntity))
}

func TestGetNotFound(t *testing.T) {
	store := new(mockStore)
	svc, _ := newService(store)

	store.On("GetByID", mock.Anything, int64(5)).Return(nil, crud.ErrNotFound)

	_, err := svc.Get(context.Background(), 5)
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestUpdateOnlySuppliedFields(t *testing.T) {
	store := new(mockStore)
	svc, events := newService(store)

	created := fixedNow.Add(-48 * time.Hour)
	existing := &entity.Account{ID: 4, Code: "4000", Name: "Sales", Type: entity.AccountTypeRevenue, Description: "retail", Status: entity.StatusActive, CreatedAt: created, UpdatedAt: created}
	store.On("GetByID", mock.Anything, int64(4)).Return(existing, nil)
	store.On("Update", mock.Anything, existing, []string{"name", "updated_at"}).Return(nil)

	name := "Online sales"
	acc, err := svc.Update(context.Background(), 4, dto.UpdateAccountRequest{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "Online sales", acc.Name)
	assert.Equal(t, "4000", acc.Code)
	assert.Equal(t, "retail", acc.Description)
	assert.Equal(t, created, acc.CreatedAt)
	assert.Equal(t, fixedNow, acc.UpdatedAt)
	assert.Equal(t, []string{"account.updated"}, events.Types())
	store.AssertExpectations(t)
}

func TestUpdateSelfParent(t *testing.T) {
	store := new(mockStore)
	svc, _ := newService(store)

	store.On("GetByID", mock.Anything, int64(4)).Return(&entity.Account{ID: 4, Code: "4000"}, nil)

	self := int64(4)
	_, err := svc.Update(context.Background(), 4, dto.UpdateAccountRequest{ParentID: &self})
	assert.True(t, errorbank.Is(err, errorbank.KindUnprocessableEntity))
}

func TestUpdateNotFound(t *testing.T) {
	store := new(mockStore)
	svc, _ := newService(store)

	store.On("GetByID", mock.Anything, int64(8)).Return(nil, crud.ErrNotFound)

	name := "x"
	_, err := svc.Update(context.Background(), 8, dto.UpdateAccountRequest{Name: &name})
	assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
}

func TestDelete(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		store := new(mockStore)
		svc, events := newService(store)
		store.On("HasChildren", mock.Anything, int64(7)).Return(false, nil)
		store.On("IsReferenced", mock.Anything, int64(7)).Return(false, nil)
		store.On("Delete", mock.Anything, int64(7)).Return(crud.ErrNotFound)

		err := svc.Delete(context.Background(), 7)
		assert.True(t, errorbank.Is(err, errorbank.KindNotFound))
		assert.Empty(t, events.Types())
	})

	t.Run("has children", func(t *testing.T) {
		store := new(mockStore)
		svc, _ := newService(store)
		store.On("HasChildren", mock.Anything, int64(1)).Return(true, nil)

		err := svc.Delete(context.Background(), 1)
		assert.True(t, errorbank.Is(err, errorbank.KindConflict))
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("referenced", func(t *testing.T) {
		store := new(mockStore)
		svc, _ := newService(store)
		store.On("HasChildren", mock.Anything, int64(2)).Return(false, nil)
		store.On("IsReferenced", mock.Anything, int64(2)).Return(true, nil)

		err := svc.Delete(context.Background(), 2)
		assert.True(t, errorbank.Is(err, errorbank.KindConflict))
	})

	t.Run("ok", func(t *testing.T) {
		store := new(mockStore)
		svc, events := newService(store)
		store.On("HasChildren", mock.Anything, int64(3)).Return(false, nil)
		store.On("IsReferenced", mock.Anything, int64(3)).Return(false, nil)
		store.On("Delete", mock.Anything, int64(3)).Return(nil)

		require.NoError(t, svc.Delete(context.Background(), 3))
		assert.Equal(t, []string{"account.deleted"}, events.Types())
	})
}

func TestListRepositoryFailure(t *testing.T) {
	store := new(mockStore)
	svc, _ := newService(store)
	store.On("List", mock.Anything, mock.Anything).Return(nil, 0, errors.New("db down"))

	_, _, err := svc.List(context.Background(), dto.AccountListQuery{})
	assert.True(t, errorbank.Is(err, errorbank.KindInternal))
}
