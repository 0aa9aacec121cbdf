// Package services содержит бизнес-логику управления публикациями комерсов:
// создание с учётом лимитов плана, обновление, удаление и выдачу.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// Ошибки лимитов плана.
var (
	ErrPublicationLimit = errors.New("publication limit reached for current plan")
	ErrImageLimit       = errors.New("image limit exceeded for current plan")
)

// ComercioRepository определяет методы для работы с публикациями в хранилище.
type ComercioRepository interface {
	CreateComercio(ctx context.Context, c models.Comercio) (string, error)
	ReadComercio(ctx context.Context, id string) (*models.Comercio, error)
	ReadComercioBySlug(ctx context.Context, slug string) (*models.Comercio, error)
	UpdateComercio(ctx context.Context, c models.Comercio, id, usuarioUID string) (int, error)
	RemoveComercio(ctx context.Context, id, usuarioUID string) (int, error)
	ListComerciosByUser(ctx context.Context, usuarioUID string) ([]*models.Comercio, error)
	CountComerciosByUser(ctx context.Context, usuarioUID string) (int, error)
	ExistsComercioSlug(ctx context.Context, slug string) (bool, error)
}

// ProfileRepository читает профиль владельца для проверки лимитов.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

// PlanRepository читает тарифы.
type PlanRepository interface {
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
}

// AppDataInvalidator сбрасывает кеш справочных данных каталога.
type AppDataInvalidator interface {
	Invalidate()
}

// ComercioService реализует бизнес-логику работы с публикациями.
type ComercioService struct {
	repo     ComercioRepository
	profiles ProfileRepository
	plans    PlanRepository
	appdata  AppDataInvalidator
	log      *slog.Logger
}

// NewComercioService создает новый экземпляр ComercioService.
func NewComercioService(repo ComercioRepository, profiles ProfileRepository,
	plans PlanRepository, appdata AppDataInvalidator, log *slog.Logger) *ComercioService {
	return &ComercioService{
		repo:     repo,
		profiles: profiles,
		plans:    plans,
		appdata:  appdata,
		log:      log,
	}
}

// Create создает публикацию владельца с проверкой лимитов его плана
// и генерацией уникального slug.
func (s *ComercioService) Create(ctx context.Context, usuarioUID string, req models.DummyComercio) (string, error) {
	plan, err := s.planOf(ctx, usuarioUID)
	if err != nil {
		return "", err
	}

	count, err := s.repo.CountComerciosByUser(ctx, usuarioUID)
	if err != nil {
		return "", err
	}
	if count >= plan.LimitePublicaciones {
		return "", ErrPublicationLimit
	}
	if len(req.Imagenes) > plan.LimiteImagenes {
		return "", ErrImageLimit
	}

	slug, err := s.uniqueSlug(ctx, req.Nombre)
	if err != nil {
		return "", err
	}

	id, err := s.repo.CreateComercio(ctx, models.Comercio{
		Nombre:      req.Nombre,
		Slug:        slug,
		ImagenURL:   req.ImagenURL,
		Imagenes:    req.Imagenes,
		RubroID:     req.RubroID,
		SubRubroID:  req.SubRubroID,
		CiudadID:    req.CiudadID,
		UsuarioUID:  usuarioUID,
		Whatsapp:    req.Whatsapp,
		Descripcion: req.Descripcion,
		Direccion:   req.Direccion,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return "", err
	}

	s.log.Info("created comercio", slog.String("id", id), slog.String("owner", usuarioUID))
	s.appdata.Invalidate()
	return id, nil
}

// Read возвращает публикацию по ID.
func (s *ComercioService) Read(ctx context.Context, id string) (*models.Comercio, error) {
	return s.repo.ReadComercio(ctx, id)
}

// ReadBySlug возвращает публикацию по slug.
func (s *ComercioService) ReadBySlug(ctx context.Context, slug string) (*models.Comercio, error) {
	return s.repo.ReadComercioBySlug(ctx, slug)
}

// Update обновляет публикацию владельца с проверкой лимита изображений.
func (s *ComercioService) Update(ctx context.Context, id, usuarioUID string, req models.DummyComercio) (int, error) {
	plan, err := s.planOf(ctx, usuarioUID)
	if err != nil {
		return 0, err
	}
	if len(req.Imagenes) > plan.LimiteImagenes {
		return 0, ErrImageLimit
	}

	count, err := s.repo.UpdateComercio(ctx, models.Comercio{
		Nombre:      req.Nombre,
		ImagenURL:   req.ImagenURL,
		Imagenes:    req.Imagenes,
		RubroID:     req.RubroID,
		SubRubroID:  req.SubRubroID,
		CiudadID:    req.CiudadID,
		Whatsapp:    req.Whatsapp,
		Descripcion: req.Descripcion,
		Direccion:   req.Direccion,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}, id, usuarioUID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.appdata.Invalidate()
	}
	return count, nil
}

// Remove удаляет публикацию владельца.
func (s *ComercioService) Remove(ctx context.Context, id, usuarioUID string) (int, error) {
	count, err := s.repo.RemoveComercio(ctx, id, usuarioUID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info("removed comercio", slog.String("id", id))
		s.appdata.Invalidate()
	}
	return count, nil
}

// ListByUser возвращает публикации владельца.
func (s *ComercioService) ListByUser(ctx context.Context, usuarioUID string) ([]*models.Comercio, error) {
	return s.repo.ListComerciosByUser(ctx, usuarioUID)
}

func (s *ComercioService) planOf(ctx context.Context, usuarioUID string) (*models.Plan, error) {
	profile, err := s.profiles.GetProfile(ctx, usuarioUID)
	if err != nil {
		return nil, err
	}
	return s.plans.GetPlan(ctx, profile.PlanID)
}

// uniqueSlug строит slug из названия и добирает числовой суффикс,
// пока не найдёт свободный.
func (s *ComercioService) uniqueSlug(ctx context.Context, nombre string) (string, error) {
	base := Slugify(nombre)
	if base == "" {
		base = "comercio"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := s.repo.ExistsComercioSlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Slugify приводит название к виду, пригодному для URL: латиница
// в нижнем регистре, цифры и дефисы.
func Slugify(nombre string) string {
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
		"ü", "u", "ñ", "n",
		"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u",
		"Ü", "u", "Ñ", "n",
	)
	lowered := strings.ToLower(replacer.Replace(nombre))

	var b strings.Builder
	prevDash := true
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
