// Package services содержит фоновые задачи обслуживания планов:
// откат истекших подписок на бесплатный план и напоминания владельцам.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
	"github.com/magabrotheeeer/guia-comercial/internal/rabbitmq"
	"github.com/streadway/amqp"
)

// ProfileRepository определяет выборки профилей для фоновых задач.
type ProfileRepository interface {
	FindExpiredPlans(ctx context.Context) ([]*models.Profile, error)
	FindPlansExpiringTomorrow(ctx context.Context) ([]*models.Profile, error)
}

// PlanDowngrader переводит пользователя на бесплатный план.
type PlanDowngrader interface {
	Downgrade(ctx context.Context, userUID string) error
}

type SchedulerService struct {
	repo     ProfileRepository
	profiles PlanDowngrader
	log      *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo ProfileRepository, profiles PlanDowngrader, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:     repo,
		profiles: profiles,
		log:      log,
	}
}

// DowngradeExpiredPlans периодически откатывает истекшие платные планы
// на бесплатный и уведомляет владельцев через очередь.
func (s *SchedulerService) DowngradeExpiredPlans(ctx context.Context, channel *amqp.Channel) {
	s.runDowngradeExpiredPlans(ctx, channel)

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s.runDowngradeExpiredPlans(ctx, channel)
	}
}

func (s *SchedulerService) runDowngradeExpiredPlans(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to downgrade expired plans")
	profiles, err := s.repo.FindExpiredPlans(ctx)
	if err != nil {
		s.log.Error("failed to find expired plans", sl.Err(err))
		return
	}
	if len(profiles) == 0 {
		s.log.Info("no expired plans found")
		return
	}
	s.log.Info("found expired plans", "count", len(profiles))
	for _, profile := range profiles {
		if err := s.profiles.Downgrade(ctx, profile.UID); err != nil {
			s.log.Error("failed to downgrade plan", sl.UID(profile.UID), sl.Err(err))
			continue
		}
		if err := rabbitmq.PublishMessage(channel, rabbitmq.NotificationsExchange, rabbitmq.RoutingKeyPlanExpired, profile); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}

// NotifyPlansExpiringTomorrow периодически находит планы, истекающие
// завтра, и публикует напоминания в очередь.
func (s *SchedulerService) NotifyPlansExpiringTomorrow(ctx context.Context, channel *amqp.Channel) {
	s.runNotifyPlansExpiringTomorrow(ctx, channel)

	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s.runNotifyPlansExpiringTomorrow(ctx, channel)
	}
}

func (s *SchedulerService) runNotifyPlansExpiringTomorrow(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting service to find plans expiring tomorrow")
	profiles, err := s.repo.FindPlansExpiringTomorrow(ctx)
	if err != nil {
		s.log.Error("failed to find expiring plans", sl.Err(err))
		return
	}
	if len(profiles) == 0 {
		s.log.Info("no expiring plans found")
		return
	}
	s.log.Info("found expiring plans", "count", len(profiles))
	for _, profile := range profiles {
		if err := rabbitmq.PublishMessage(channel, rabbitmq.NotificationsExchange, rabbitmq.RoutingKeyPlanExpiring, profile); err != nil {
			s.log.Error("failed to publish message", sl.Err(err))
		}
	}
}
