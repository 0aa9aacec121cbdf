// Package services содержит бизнес-логику отзывов о комерсах.
package services

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// ReviewRepository определяет методы для работы с отзывами в хранилище.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review models.Review) (int, error)
	ListReviewsByComercio(ctx context.Context, comercioID string) ([]*models.Review, error)
}

// ProfileRepository читает профиль автора отзыва.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

// AppDataInvalidator сбрасывает кеш справочных данных каталога.
type AppDataInvalidator interface {
	Invalidate()
}

// ReviewService реализует создание и выдачу отзывов.
type ReviewService struct {
	repo     ReviewRepository
	profiles ProfileRepository
	appdata  AppDataInvalidator
	log      *slog.Logger
}

// NewReviewService создает новый экземпляр ReviewService.
func NewReviewService(repo ReviewRepository, profiles ProfileRepository,
	appdata AppDataInvalidator, log *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		profiles: profiles,
		appdata:  appdata,
		log:      log,
	}
}

// Create сохраняет отзыв, подставляя отображаемое имя автора.
func (s *ReviewService) Create(ctx context.Context, usuarioUID string, req models.DummyReview) (int, error) {
	nombre := ""
	profile, err := s.profiles.GetProfile(ctx, usuarioUID)
	if err != nil {
		s.log.Warn("failed to resolve review author", slog.String("user_uid", usuarioUID), slog.Any("err", err))
	} else {
		nombre = profile.Nombre
		if nombre == "" {
			nombre = profile.Email
		}
	}

	id, err := s.repo.CreateReview(ctx, models.Review{
		ComercioID:    req.ComercioID,
		UsuarioUID:    usuarioUID,
		UsuarioNombre: nombre,
		Comentario:    req.Comentario,
		Rating:        req.Rating,
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("created review", slog.Int("id", id), slog.String("comercio_id", req.ComercioID))
	s.appdata.Invalidate()
	return id, nil
}

// ListByComercio возвращает отзывы публикации.
func (s *ReviewService) ListByComercio(ctx context.Context, comercioID string) ([]*models.Review, error) {
	return s.repo.ListReviewsByComercio(ctx, comercioID)
}
