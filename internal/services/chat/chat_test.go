package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
	"github.com/magabrotheeeer/guia-comercial/internal/rabbitmq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatRepo struct {
	mock.Mock
}

func (m *MockChatRepo) FindConversation(ctx context.Context, comercioID, clienteUID string) (*models.Conversation, error) {
	args := m.Called(ctx, comercioID, clienteUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockChatRepo) CreateConversation(ctx context.Context, comercioID, clienteUID string) (string, error) {
	args := m.Called(ctx, comercioID, clienteUID)
	return args.String(0), args.Error(1)
}

func (m *MockChatRepo) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockChatRepo) ListConversations(ctx context.Context, userUID string) ([]*models.Conversation, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Conversation), args.Error(1)
}

func (m *MockChatRepo) CreateMessage(ctx context.Context, conversationID, senderUID, content string) (*models.Message, error) {
	args := m.Called(ctx, conversationID, senderUID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockChatRepo) ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockChatRepo) MarkMessagesRead(ctx context.Context, conversationID, readerUID string) error {
	args := m.Called(ctx, conversationID, readerUID)
	return args.Error(0)
}

type MockComercios struct {
	mock.Mock
}

func (m *MockComercios) ReadComercio(ctx context.Context, id string) (*models.Comercio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comercio), args.Error(1)
}

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

type MockPlans struct {
	mock.Mock
}

func (m *MockPlans) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_FindOrCreateConversation(t *testing.T) {
	comercio := &models.Comercio{ID: "com-1", UsuarioUID: "owner-1"}

	tests := []struct {
		name          string
		setupMocks    func(*MockChatRepo, *MockComercios, *MockProfiles, *MockPlans)
		expectedError error
	}{
		{
			name: "creates conversation when chat plan allows it",
			setupMocks: func(r *MockChatRepo, c *MockComercios, p *MockProfiles, pl *MockPlans) {
				c.On("ReadComercio", mock.Anything, "com-1").Return(comercio, nil).Once()
				p.On("GetProfile", mock.Anything, "owner-1").
					Return(&models.Profile{UID: "owner-1", PlanID: "premium"}, nil).Once()
				pl.On("GetPlan", mock.Anything, "premium").
					Return(&models.Plan{ID: "premium", TieneChat: true}, nil).Once()
				r.On("FindConversation", mock.Anything, "com-1", "cliente-1").Return(nil, nil).Once()
				r.On("CreateConversation", mock.Anything, "com-1", "cliente-1").Return("conv-1", nil).Once()
				r.On("GetConversation", mock.Anything, "conv-1").Return(&models.Conversation{
					ID:              "conv-1",
					ComercioID:      "com-1",
					ClienteUID:      "cliente-1",
					ParticipantUIDs: []string{"cliente-1", "owner-1"},
				}, nil).Once()
			},
		},
		{
			name: "returns existing conversation without creating",
			setupMocks: func(r *MockChatRepo, c *MockComercios, p *MockProfiles, pl *MockPlans) {
				c.On("ReadComercio", mock.Anything, "com-1").Return(comercio, nil).Once()
				p.On("GetProfile", mock.Anything, "owner-1").
					Return(&models.Profile{UID: "owner-1", PlanID: "premium"}, nil).Once()
				pl.On("GetPlan", mock.Anything, "premium").
					Return(&models.Plan{ID: "premium", TieneChat: true}, nil).Once()
				r.On("FindConversation", mock.Anything, "com-1", "cliente-1").Return(&models.Conversation{
					ID:         "conv-1",
					ComercioID: "com-1",
					ClienteUID: "cliente-1",
				}, nil).Once()
			},
		},
		{
			name: "chat is gated by owner plan",
			setupMocks: func(_ *MockChatRepo, c *MockComercios, p *MockProfiles, pl *MockPlans) {
				c.On("ReadComercio", mock.Anything, "com-1").Return(comercio, nil).Once()
				p.On("GetProfile", mock.Anything, "owner-1").
					Return(&models.Profile{UID: "owner-1", PlanID: "free"}, nil).Once()
				pl.On("GetPlan", mock.Anything, "free").
					Return(&models.Plan{ID: "free", TieneChat: false}, nil).Once()
			},
			expectedError: ErrChatNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockChatRepo)
			comercios := new(MockComercios)
			profiles := new(MockProfiles)
			plans := new(MockPlans)
			tt.setupMocks(repo, comercios, profiles, plans)

			svc := NewChatService(repo, comercios, profiles, plans, new(MockPublisher), newNoopLogger())

			got, err := svc.FindOrCreateConversation(context.Background(), "com-1", "cliente-1")

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, "conv-1", got.ID)
				assert.ElementsMatch(t, []string{"cliente-1", "owner-1"}, got.ParticipantUIDs)
			}
			repo.AssertExpectations(t)
			comercios.AssertExpectations(t)
			profiles.AssertExpectations(t)
			plans.AssertExpectations(t)
		})
	}
}

func TestService_SendMessage(t *testing.T) {
	conv := &models.Conversation{
		ID:              "conv-1",
		ComercioID:      "com-1",
		ClienteUID:      "cliente-1",
		ParticipantUIDs: []string{"cliente-1", "owner-1"},
	}

	t.Run("message is stored and push job published to the other party", func(t *testing.T) {
		repo := new(MockChatRepo)
		profiles := new(MockProfiles)
		publisher := new(MockPublisher)

		repo.On("GetConversation", mock.Anything, "conv-1").Return(conv, nil).Once()
		repo.On("CreateMessage", mock.Anything, "conv-1", "cliente-1", "Hola!").Return(&models.Message{
			ID:             1,
			ConversationID: "conv-1",
			SenderUID:      "cliente-1",
			Content:        "Hola!",
			CreatedAt:      time.Now(),
		}, nil).Once()
		profiles.On("GetProfile", mock.Anything, "owner-1").
			Return(&models.Profile{UID: "owner-1", Email: "owner@example.com"}, nil).Once()
		publisher.On("Publish", rabbitmq.RoutingKeyPush, mock.MatchedBy(func(msg any) bool {
			job, ok := msg.(models.PushJob)
			return ok &&
				job.Title == "Nuevo mensaje" &&
				len(job.UserUIDs) == 1 && job.UserUIDs[0] == "owner-1" &&
				len(job.Emails) == 1 && job.Emails[0] == "owner@example.com"
		})).Return(nil).Once()

		svc := NewChatService(repo, new(MockComercios), profiles, new(MockPlans), publisher, newNoopLogger())

		got, err := svc.SendMessage(context.Background(), "cliente-1", models.DummyMessage{
			ConversationID: "conv-1",
			Content:        "Hola!",
		})

		require.NoError(t, err)
		assert.Equal(t, "Hola!", got.Content)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("stranger cannot send message", func(t *testing.T) {
		repo := new(MockChatRepo)
		repo.On("GetConversation", mock.Anything, "conv-1").Return(conv, nil).Once()

		svc := NewChatService(repo, new(MockComercios), new(MockProfiles), new(MockPlans),
			new(MockPublisher), newNoopLogger())

		got, err := svc.SendMessage(context.Background(), "stranger", models.DummyMessage{
			ConversationID: "conv-1",
			Content:        "Hola!",
		})

		require.ErrorIs(t, err, ErrNotParticipant)
		assert.Nil(t, got)
	})
}

func TestService_ListMessages(t *testing.T) {
	conv := &models.Conversation{
		ID:              "conv-1",
		ParticipantUIDs: []string{"cliente-1", "owner-1"},
	}

	t.Run("participant reads messages and they become read", func(t *testing.T) {
		repo := new(MockChatRepo)
		repo.On("GetConversation", mock.Anything, "conv-1").Return(conv, nil).Once()
		repo.On("MarkMessagesRead", mock.Anything, "conv-1", "owner-1").Return(nil).Once()
		repo.On("ListMessages", mock.Anything, "conv-1").Return([]*models.Message{
			{ID: 1, Content: "Hola!", IsRead: true},
		}, nil).Once()

		svc := NewChatService(repo, new(MockComercios), new(MockProfiles), new(MockPlans),
			new(MockPublisher), newNoopLogger())

		got, err := svc.ListMessages(context.Background(), "conv-1", "owner-1")

		require.NoError(t, err)
		require.Len(t, got, 1)
		repo.AssertExpectations(t)
	})

	t.Run("stranger cannot read messages", func(t *testing.T) {
		repo := new(MockChatRepo)
		repo.On("GetConversation", mock.Anything, "conv-1").Return(conv, nil).Once()

		svc := NewChatService(repo, new(MockComercios), new(MockProfiles), new(MockPlans),
			new(MockPublisher), newNoopLogger())

		_, err := svc.ListMessages(context.Background(), "conv-1", "stranger")
		require.ErrorIs(t, err, ErrNotParticipant)
	})
}
