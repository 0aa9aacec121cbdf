package send

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/guia-comercial/internal/http/middlewarectx"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
	chatservice "github.com/magabrotheeeer/guia-comercial/internal/services/chat"
)

// Мок сервиса с методом SendMessage
type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) SendMessage(ctx context.Context, senderUID string, req models.DummyMessage) (*models.Message, error) {
	args := m.Called(ctx, senderUID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSendHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(ChatServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock)

	const convID = "2f1d9c2a-5b1e-4e1a-9c3d-8a7b6c5d4e3f"

	tests := []struct {
		name           string
		requestBody    interface{}
		userUID        string
		mockMsg        *models.Message
		mockErr        error
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "valid message",
			requestBody:    models.DummyMessage{ConversationID: convID, Content: "Hola, ¿tienen stock?"},
			userUID:        "uid-1",
			mockMsg:        &models.Message{ID: 1, ConversationID: convID, SenderUID: "uid-1", Content: "Hola, ¿tienen stock?"},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "not a participant",
			requestBody:    models.DummyMessage{ConversationID: convID, Content: "hola"},
			userUID:        "uid-stranger",
			mockErr:        chatservice.ErrNotParticipant,
			wantStatusCode: http.StatusForbidden,
			wantStatus:     "Error",
		},
		{
			name:           "missing user in context",
			requestBody:    models.DummyMessage{ConversationID: convID, Content: "hola"},
			userUID:        "",
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - bad conversation id",
			requestBody:    models.DummyMessage{ConversationID: "not-a-uuid", Content: "hola"},
			userUID:        "uid-1",
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - empty content",
			requestBody:    models.DummyMessage{ConversationID: convID},
			userUID:        "uid-1",
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "service error",
			requestBody:    models.DummyMessage{ConversationID: convID, Content: "hola"},
			userUID:        "uid-1",
			mockErr:        assert.AnError,
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockMsg != nil || tt.mockErr != nil {
				serviceMock.On("SendMessage", mock.Anything, tt.userUID, mock.Anything).
					Return(tt.mockMsg, tt.mockErr).Once()
			}

			bodyBytes, err := json.Marshal(tt.requestBody)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewReader(bodyBytes))
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp["status"])
			serviceMock.AssertExpectations(t)
		})
	}
}
