package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReferenceRepo struct {
	mock.Mock
}

func (m *MockReferenceRepo) ListProvincias(ctx context.Context) ([]*models.Provincia, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Provincia), args.Error(1)
}

func (m *MockReferenceRepo) ListCiudades(ctx context.Context) ([]*models.Ciudad, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ciudad), args.Error(1)
}

func (m *MockReferenceRepo) ListRubros(ctx context.Context) ([]*models.Rubro, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Rubro), args.Error(1)
}

func (m *MockReferenceRepo) ListSubRubros(ctx context.Context) ([]*models.SubRubro, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubRubro), args.Error(1)
}

func (m *MockReferenceRepo) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *MockReferenceRepo) ListComercios(ctx context.Context) ([]*models.Comercio, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comercio), args.Error(1)
}

func (m *MockReferenceRepo) ListAllReviews(ctx context.Context) ([]*models.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *MockReferenceRepo) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockReferenceRepo) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_FetchAppData(t *testing.T) {
	now := time.Now()
	premium := &models.Plan{ID: "premium", TienePrioridad: true}
	free := &models.Plan{ID: "free", TienePrioridad: false}

	t.Run("enriches and sorts comercios, priority plans first", func(t *testing.T) {
		repo := new(MockReferenceRepo)
		cache := new(MockCache)

		cache.On("Get", AppDataCacheKey, mock.Anything).Return(false, nil).Once()
		repo.On("ListProvincias", mock.Anything).Return([]*models.Provincia{{ID: "p1", Nombre: "Buenos Aires"}}, nil).Once()
		repo.On("ListCiudades", mock.Anything).Return([]*models.Ciudad{{ID: "c1", Nombre: "Mar del Plata"}}, nil).Once()
		repo.On("ListRubros", mock.Anything).Return([]*models.Rubro{{ID: "r1", Nombre: "Gastronomía"}}, nil).Once()
		repo.On("ListSubRubros", mock.Anything).Return([]*models.SubRubro{}, nil).Once()
		repo.On("ListPlans", mock.Anything).Return([]*models.Plan{free, premium}, nil).Once()
		repo.On("ListComercios", mock.Anything).Return([]*models.Comercio{
			{ID: "com-free", UsuarioUID: "owner-free", CreatedAt: now},
			{ID: "com-premium", UsuarioUID: "owner-premium", CreatedAt: now.Add(-time.Hour)},
		}, nil).Once()
		repo.On("ListAllReviews", mock.Anything).Return([]*models.Review{
			{ID: 1, ComercioID: "com-free", Rating: 4},
			{ID: 2, ComercioID: "com-free", Rating: 2},
		}, nil).Once()
		repo.On("GetProfile", mock.Anything, "owner-free").
			Return(&models.Profile{UID: "owner-free", PlanID: "free"}, nil).Once()
		repo.On("GetProfile", mock.Anything, "owner-premium").
			Return(&models.Profile{UID: "owner-premium", PlanID: "premium"}, nil).Once()
		repo.On("GetPlan", mock.Anything, "free").Return(free, nil).Once()
		repo.On("GetPlan", mock.Anything, "premium").Return(premium, nil).Once()
		cache.On("Set", AppDataCacheKey, mock.Anything, 5*time.Minute).Return(nil).Once()

		svc := NewReferenceDataService(repo, cache, newNoopLogger())

		data, err := svc.FetchAppData(context.Background())

		require.NoError(t, err)
		require.Len(t, data.Comercios, 2)
		// приоритетный план раньше более свежего бесплатного
		assert.Equal(t, "com-premium", data.Comercios[0].ID)
		assert.Equal(t, "com-free", data.Comercios[1].ID)
		assert.Equal(t, 2, data.Comercios[1].ReviewCount)
		assert.InDelta(t, 3.0, data.Comercios[1].Rating, 0.001)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips the repository entirely", func(t *testing.T) {
		repo := new(MockReferenceRepo)
		cache := new(MockCache)
		cache.On("Get", AppDataCacheKey, mock.Anything).Run(func(args mock.Arguments) {
			ptr := args.Get(1).(**models.AppData)
			*ptr = &models.AppData{Provincias: []*models.Provincia{{ID: "p1"}}}
		}).Return(true, nil).Once()

		svc := NewReferenceDataService(repo, cache, newNoopLogger())

		data, err := svc.FetchAppData(context.Background())

		require.NoError(t, err)
		require.Len(t, data.Provincias, 1)
		repo.AssertNotCalled(t, "ListComercios")
	})

	t.Run("single table failure does not fail the whole fetch", func(t *testing.T) {
		repo := new(MockReferenceRepo)
		cache := new(MockCache)
		cache.On("Get", AppDataCacheKey, mock.Anything).Return(false, nil).Once()
		repo.On("ListProvincias", mock.Anything).Return(nil, errors.New("connection reset")).Once()
		repo.On("ListCiudades", mock.Anything).Return([]*models.Ciudad{{ID: "c1"}}, nil).Once()
		repo.On("ListRubros", mock.Anything).Return([]*models.Rubro{}, nil).Once()
		repo.On("ListSubRubros", mock.Anything).Return([]*models.SubRubro{}, nil).Once()
		repo.On("ListPlans", mock.Anything).Return([]*models.Plan{}, nil).Once()
		repo.On("ListComercios", mock.Anything).Return([]*models.Comercio{}, nil).Once()
		cache.On("Set", AppDataCacheKey, mock.Anything, 5*time.Minute).Return(nil).Once()

		svc := NewReferenceDataService(repo, cache, newNoopLogger())

		data, err := svc.FetchAppData(context.Background())

		require.NoError(t, err)
		assert.Nil(t, data.Provincias)
		require.Len(t, data.Ciudades, 1)
	})
}

func TestService_Invalidate(t *testing.T) {
	cache := new(MockCache)
	cache.On("Invalidate", AppDataCacheKey).Return(nil).Once()

	svc := NewReferenceDataService(new(MockReferenceRepo), cache, newNoopLogger())
	svc.Invalidate()

	cache.AssertExpectations(t)
}
