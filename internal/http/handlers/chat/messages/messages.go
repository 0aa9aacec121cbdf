// Package messages реализует HTTP-обработчик чтения сообщений переписки.
// Чтение помечает чужие сообщения прочитанными.
package messages

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/guia-comercial/internal/http/middlewarectx"
	"github.com/magabrotheeeer/guia-comercial/internal/http/response"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
	chatservice "github.com/magabrotheeeer/guia-comercial/internal/services/chat"
)

// Handler обрабатывает запросы на чтение сообщений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения сообщений.
type Service interface {
	ListMessages(ctx context.Context, conversationID, readerUID string) ([]*models.Message, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить сообщения переписки
// @Description Возвращает сообщения переписки и помечает чужие прочитанными. Доступно только участникам.
// @Tags Chat
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID переписки"
// @Success 200 {object} map[string]any "Сообщения переписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь не участник переписки"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /chat/conversations/{id}/messages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.messages"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	conversationID := chi.URLParam(r, "id")
	if conversationID == "" {
		log.Error("missing conversation id in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing conversation id in url"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	messages, err := h.service.ListMessages(r.Context(), conversationID, userUID)
	if err != nil {
		if errors.Is(err, chatservice.ErrNotParticipant) {
			log.Info("access to foreign conversation denied", sl.UID(userUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("not a participant of the conversation"))
			return
		}
		log.Error("failed to list messages", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list messages"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"messages": messages,
	}))
}
