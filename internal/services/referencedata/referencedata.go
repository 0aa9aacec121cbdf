// Package services собирает публичные справочные данные каталога:
// локации, рубрики, планы и список комерсов с агрегатами.
package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// AppDataCacheKey ключ кеша собранных справочных данных.
const AppDataCacheKey = "appdata"

// ReferenceRepository определяет методы для чтения справочников.
type ReferenceRepository interface {
	ListProvincias(ctx context.Context) ([]*models.Provincia, error)
	ListCiudades(ctx context.Context) ([]*models.Ciudad, error)
	ListRubros(ctx context.Context) ([]*models.Rubro, error)
	ListSubRubros(ctx context.Context) ([]*models.SubRubro, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	ListComercios(ctx context.Context) ([]*models.Comercio, error)
	ListAllReviews(ctx context.Context) ([]*models.Review, error)
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// ReferenceDataService реализует сборку справочных данных каталога.
type ReferenceDataService struct {
	repo  ReferenceRepository
	cache Cache
	log   *slog.Logger
}

// NewReferenceDataService создает новый экземпляр ReferenceDataService.
func NewReferenceDataService(repo ReferenceRepository, cache Cache, log *slog.Logger) *ReferenceDataService {
	return &ReferenceDataService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// FetchAppData возвращает справочные данные каталога. Отказ одного
// справочника не валит сборку целиком: его список остаётся пустым,
// а ошибка уходит в лог.
func (s *ReferenceDataService) FetchAppData(ctx context.Context) (*models.AppData, error) {
	var cached *models.AppData
	found, err := s.cache.Get(AppDataCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read appdata from cache", slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	data := &models.AppData{}

	if data.Provincias, err = s.repo.ListProvincias(ctx); err != nil {
		s.log.Error("failed to list provincias", slog.Any("err", err))
		data.Provincias = nil
	}
	if data.Ciudades, err = s.repo.ListCiudades(ctx); err != nil {
		s.log.Error("failed to list ciudades", slog.Any("err", err))
		data.Ciudades = nil
	}
	if data.Rubros, err = s.repo.ListRubros(ctx); err != nil {
		s.log.Error("failed to list rubros", slog.Any("err", err))
		data.Rubros = nil
	}
	if data.SubRubros, err = s.repo.ListSubRubros(ctx); err != nil {
		s.log.Error("failed to list sub_rubros", slog.Any("err", err))
		data.SubRubros = nil
	}
	if data.Plans, err = s.repo.ListPlans(ctx); err != nil {
		s.log.Error("failed to list plans", slog.Any("err", err))
		data.Plans = nil
	}

	comercios, err := s.repo.ListComercios(ctx)
	if err != nil {
		s.log.Error("failed to list comercios", slog.Any("err", err))
		comercios = nil
	}
	data.Comercios = s.enrichComercios(ctx, comercios)

	if err := s.cache.Set(AppDataCacheKey, data, 5*time.Minute); err != nil {
		s.log.Warn("failed to cache appdata", slog.Any("err", err))
	}
	return data, nil
}

// Invalidate сбрасывает кеш справочных данных. Вызывается при изменении
// публикаций и отзывов.
func (s *ReferenceDataService) Invalidate() {
	if err := s.cache.Invalidate(AppDataCacheKey); err != nil {
		s.log.Warn("failed to invalidate appdata cache", slog.Any("err", err))
	}
}

// enrichComercios добавляет публикациям рейтинги, отзывы и план владельца,
// затем сортирует выдачу: приоритетные планы первыми, внутри группы новые первыми.
func (s *ReferenceDataService) enrichComercios(ctx context.Context, comercios []*models.Comercio) []*models.Comercio {
	if len(comercios) == 0 {
		return comercios
	}

	reviewsByComercio := make(map[string][]*models.Review)
	reviews, err := s.repo.ListAllReviews(ctx)
	if err != nil {
		s.log.Error("failed to list reviews", slog.Any("err", err))
	} else {
		for _, r := range reviews {
			reviewsByComercio[r.ComercioID] = append(reviewsByComercio[r.ComercioID], r)
		}
	}

	planByOwner := make(map[string]*models.Plan)
	for _, c := range comercios {
		c.Reviews = reviewsByComercio[c.ID]
		c.ReviewCount = len(c.Reviews)
		if c.ReviewCount > 0 {
			var sum int
			for _, r := range c.Reviews {
				sum += r.Rating
			}
			c.Rating = float64(sum) / float64(c.ReviewCount)
		}

		plan, ok := planByOwner[c.UsuarioUID]
		if !ok {
			plan = s.ownerPlan(ctx, c.UsuarioUID)
			planByOwner[c.UsuarioUID] = plan
		}
		c.Plan = plan
	}

	sort.SliceStable(comercios, func(i, j int) bool {
		pi := comercios[i].Plan != nil && comercios[i].Plan.TienePrioridad
		pj := comercios[j].Plan != nil && comercios[j].Plan.TienePrioridad
		if pi != pj {
			return pi
		}
		return comercios[i].CreatedAt.After(comercios[j].CreatedAt)
	})
	return comercios
}

// ownerPlan возвращает план владельца комерса; при любой ошибке план
// считается неизвестным и публикация трактуется как бесплатная.
func (s *ReferenceDataService) ownerPlan(ctx context.Context, ownerUID string) *models.Plan {
	profile, err := s.repo.GetProfile(ctx, ownerUID)
	if err != nil {
		s.log.Warn("failed to get comercio owner", slog.String("owner_uid", ownerUID), slog.Any("err", err))
		return nil
	}
	plan, err := s.repo.GetPlan(ctx, profile.PlanID)
	if err != nil {
		s.log.Warn("failed to get owner plan", slog.String("plan_id", profile.PlanID), slog.Any("err", err))
		return nil
	}
	return plan
}
