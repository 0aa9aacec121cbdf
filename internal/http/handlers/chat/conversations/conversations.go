// Package conversations реализует HTTP-обработчики переписок:
// получение или создание переписки с комерсом и список переписок
// текущего пользователя.
package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/guia-comercial/internal/http/middlewarectx"
	"github.com/magabrotheeeer/guia-comercial/internal/http/response"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
	chatservice "github.com/magabrotheeeer/guia-comercial/internal/services/chat"
)

// openRequest тело запроса на открытие переписки с комерсом.
type openRequest struct {
	ComercioID string `json:"comercio_id" validate:"required,uuid"`
}

// Handler управляет HTTP-запросами к перепискам.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики переписок.
type Service interface {
	FindOrCreateConversation(ctx context.Context, comercioID, clienteUID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userUID string) ([]*models.Conversation, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Open godoc
// @Summary Открыть переписку с комерсом
// @Description Возвращает существующую переписку или создает новую. Чат доступен, если план владельца комерса включает его.
// @Tags Chat
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body openRequest true "ID комерса"
// @Success 200 {object} map[string]any "Переписка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Чат недоступен на плане владельца"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /chat/conversations [post]
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.conversations.Open"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	clienteUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || clienteUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	conv, err := h.service.FindOrCreateConversation(r.Context(), req.ComercioID, clienteUID)
	if err != nil {
		if errors.Is(err, chatservice.ErrChatNotAvailable) {
			log.Info("chat not available", slog.String("comercio_id", req.ComercioID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("chat is not available for this comercio"))
			return
		}
		log.Error("failed to open conversation", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not open conversation"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"conversation": conv,
	}))
}

// List godoc
// @Summary Список переписок
// @Description Возвращает переписки текущего пользователя со счетчиками непрочитанных сообщений.
// @Tags Chat
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список переписок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /chat/conversations [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.conversations.List"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	conversations, err := h.service.ListConversations(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list conversations", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list conversations"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"conversations": conversations,
	}))
}
