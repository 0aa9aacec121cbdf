// Package services содержит бизнес-логику чата клиентов с комерсами.
// Доступность чата определяется планом владельца комерса.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
	"github.com/magabrotheeeer/guia-comercial/internal/rabbitmq"
)

// Ошибки чата.
var (
	ErrChatNotAvailable = errors.New("chat is not available for this comercio plan")
	ErrNotParticipant   = errors.New("user is not a participant of the conversation")
)

// ChatRepository определяет методы для работы с переписками в хранилище.
type ChatRepository interface {
	FindConversation(ctx context.Context, comercioID, clienteUID string) (*models.Conversation, error)
	CreateConversation(ctx context.Context, comercioID, clienteUID string) (string, error)
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userUID string) ([]*models.Conversation, error)
	CreateMessage(ctx context.Context, conversationID, senderUID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerUID string) error
}

// ComercioRepository читает публикацию для проверки плана владельца.
type ComercioRepository interface {
	ReadComercio(ctx context.Context, id string) (*models.Comercio, error)
}

// ProfileRepository читает профиль владельца комерса.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

// PlanRepository читает тарифы.
type PlanRepository interface {
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
}

// PushPublisher публикует задания на push-уведомления.
type PushPublisher interface {
	Publish(routingKey string, message any) error
}

// ChatService реализует бизнес-логику чата.
type ChatService struct {
	repo      ChatRepository
	comercios ComercioRepository
	profiles  ProfileRepository
	plans     PlanRepository
	publisher PushPublisher
	log       *slog.Logger
}

// NewChatService создает новый экземпляр ChatService.
func NewChatService(repo ChatRepository, comercios ComercioRepository, profiles ProfileRepository,
	plans PlanRepository, publisher PushPublisher, log *slog.Logger) *ChatService {
	return &ChatService{
		repo:      repo,
		comercios: comercios,
		profiles:  profiles,
		plans:     plans,
		publisher: publisher,
		log:       log,
	}
}

// FindOrCreateConversation возвращает переписку клиента с комерсом,
// создавая её при первом обращении. Чат доступен только если план
// владельца комерса включает tiene_chat.
func (s *ChatService) FindOrCreateConversation(ctx context.Context, comercioID, clienteUID string) (*models.Conversation, error) {
	comercio, err := s.comercios.ReadComercio(ctx, comercioID)
	if err != nil {
		return nil, err
	}

	owner, err := s.profiles.GetProfile(ctx, comercio.UsuarioUID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetPlan(ctx, owner.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.TieneChat {
		return nil, ErrChatNotAvailable
	}

	conv, err := s.repo.FindConversation(ctx, comercioID, clienteUID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		id, err := s.repo.CreateConversation(ctx, comercioID, clienteUID)
		if err != nil {
			return nil, err
		}
		s.log.Info("created conversation", slog.String("id", id), slog.String("comercio_id", comercioID))
		return s.repo.GetConversation(ctx, id)
	}
	conv.ParticipantUIDs = []string{clienteUID, comercio.UsuarioUID}
	return conv, nil
}

// ListConversations возвращает переписки пользователя со счётчиками непрочитанного.
func (s *ChatService) ListConversations(ctx context.Context, userUID string) ([]*models.Conversation, error) {
	return s.repo.ListConversations(ctx, userUID)
}

// ListMessages возвращает сообщения переписки и помечает чужие прочитанными.
// Доступ имеют только участники переписки.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, readerUID string) ([]*models.Message, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(conv, readerUID) {
		return nil, ErrNotParticipant
	}

	if err := s.repo.MarkMessagesRead(ctx, conversationID, readerUID); err != nil {
		s.log.Warn("failed to mark messages read", slog.Any("err", err))
	}
	return s.repo.ListMessages(ctx, conversationID)
}

// SendMessage сохраняет сообщение и публикует задание на push-уведомление
// для второго участника переписки.
func (s *ChatService) SendMessage(ctx context.Context, senderUID string, req models.DummyMessage) (*models.Message, error) {
	conv, err := s.repo.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(conv, senderUID) {
		return nil, ErrNotParticipant
	}

	msg, err := s.repo.CreateMessage(ctx, req.ConversationID, senderUID, req.Content)
	if err != nil {
		return nil, err
	}

	var recipients []string
	for _, uid := range conv.ParticipantUIDs {
		if uid != senderUID {
			recipients = append(recipients, uid)
		}
	}
	if len(recipients) > 0 {
		var emails []string
		for _, uid := range recipients {
			profile, err := s.profiles.GetProfile(ctx, uid)
			if err != nil {
				s.log.Warn("failed to resolve push recipient", slog.String("user_uid", uid), slog.Any("err", err))
				continue
			}
			emails = append(emails, profile.Email)
		}
		job := models.PushJob{
			Title:    "Nuevo mensaje",
			Body:     req.Content,
			URL:      fmt.Sprintf("/mensajes/%s", conv.ID),
			UserUIDs: recipients,
			Emails:   emails,
		}
		if err := s.publisher.Publish(rabbitmq.RoutingKeyPush, job); err != nil {
			s.log.Warn("failed to publish push job", slog.Any("err", err))
		}
	}
	return msg, nil
}

func isParticipant(conv *models.Conversation, userUID string) bool {
	for _, uid := range conv.ParticipantUIDs {
		if uid == userUID {
			return true
		}
	}
	return false
}
