// Package services содержит бизнес-логику работы с профилями и планами подписки.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// ProfileRepository определяет методы для работы с профилями в хранилище.
type ProfileRepository interface {
	// GetProfile возвращает профиль по UID.
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	// UpdateProfile обновляет имя и телефон профиля.
	UpdateProfile(ctx context.Context, userUID, nombre, telefono string) (int, error)
	// SetPlan устанавливает профилю план и дату его окончания.
	SetPlan(ctx context.Context, userUID, planID string, expiresAt *time.Time) error
	// ListProfiles возвращает список всех профилей с пагинацией.
	ListProfiles(ctx context.Context, limit, offset int) ([]*models.Profile, error)
}

// PlanRepository определяет методы для чтения тарифов.
type PlanRepository interface {
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
}

// HistoryRepository фиксирует активации планов.
type HistoryRepository interface {
	CreateHistoryEntry(ctx context.Context, entry models.SubscriptionHistoryEntry) (int, error)
	MarkHistoryExpired(ctx context.Context, userUID string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// ProfileService реализует чтение и обновление профилей и смену планов.
type ProfileService struct {
	profiles ProfileRepository
	plans    PlanRepository
	history  HistoryRepository
	cache    Cache
	log      *slog.Logger
}

// NewProfileService создает новый экземпляр ProfileService.
func NewProfileService(profiles ProfileRepository, plans PlanRepository,
	history HistoryRepository, cache Cache, log *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		plans:    plans,
		history:  history,
		cache:    cache,
		log:      log,
	}
}

// Get возвращает профиль по UID, используя кеш или репозиторий.
func (s *ProfileService) Get(ctx context.Context, userUID string) (*models.Profile, error) {
	var result *models.Profile
	cacheKey := profileKey(userUID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read profile from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return result, nil
	}

	profile, err := s.profiles.GetProfile(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, profile, time.Hour); err != nil {
		s.log.Warn("failed to cache profile", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return profile, nil
}

// Update обновляет изменяемые поля профиля и инвалидирует кеш.
// Пустые поля запроса сохраняют прежние значения.
func (s *ProfileService) Update(ctx context.Context, userUID string, req models.DummyProfilePatch) (*models.Profile, error) {
	current, err := s.profiles.GetProfile(ctx, userUID)
	if err != nil {
		return nil, err
	}

	nombre := current.Nombre
	if req.Nombre != "" {
		nombre = req.Nombre
	}
	telefono := current.Telefono
	if req.Telefono != "" {
		telefono = req.Telefono
	}

	if _, err := s.profiles.UpdateProfile(ctx, userUID, nombre, telefono); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(profileKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.Any("err", err))
	}

	current.Nombre = nombre
	current.Telefono = telefono
	return current, nil
}

// ActivatePlan активирует пользователю план на заданное число дней
// и записывает активацию в историю. Запись идемпотентна по paymentID.
func (s *ProfileService) ActivatePlan(ctx context.Context, userUID, planID, paymentID string,
	amount float64, days int) (time.Time, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown plan %q: %w", planID, err)
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, days)
	var expiry *time.Time
	if plan.ID != models.FreePlanID {
		expiry = &expiresAt
	}

	if err := s.profiles.SetPlan(ctx, userUID, plan.ID, expiry); err != nil {
		return time.Time{}, err
	}

	status := models.HistoryStatusActive
	if paymentID == "" {
		status = models.HistoryStatusManual
	}
	if _, err := s.history.CreateHistoryEntry(ctx, models.SubscriptionHistoryEntry{
		UserUID:   userUID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   expiresAt,
		Amount:    amount,
		PaymentID: paymentID,
		Status:    status,
	}); err != nil {
		return time.Time{}, err
	}

	if err := s.cache.Invalidate(profileKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.Any("err", err))
	}

	s.log.Info("plan activated",
		slog.String("user_uid", userUID),
		slog.String("plan_id", plan.ID),
		slog.Time("expires_at", expiresAt))
	return expiresAt, nil
}

// Downgrade переводит пользователя на бесплатный план и помечает
// его активные записи истории истекшими.
func (s *ProfileService) Downgrade(ctx context.Context, userUID string) error {
	if err := s.profiles.SetPlan(ctx, userUID, models.FreePlanID, nil); err != nil {
		return err
	}
	if err := s.history.MarkHistoryExpired(ctx, userUID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(profileKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.Any("err", err))
	}
	s.log.Info("plan downgraded to free", slog.String("user_uid", userUID))
	return nil
}

// List возвращает список профилей с пагинацией.
func (s *ProfileService) List(ctx context.Context, limit, offset int) ([]*models.Profile, error) {
	return s.profiles.ListProfiles(ctx, limit, offset)
}

func profileKey(userUID string) string {
	return fmt.Sprintf("profile:%s", userUID)
}
