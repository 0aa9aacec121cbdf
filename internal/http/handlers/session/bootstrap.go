// Package session реализует HTTP-обработчик загрузки приложения.
//
// Handler прогоняет адрес страницы через сценарий webflow: восстановление
// сессии, обработку возврата с оплаты и выбор стартового представления —
// и возвращает клиенту итоговое состояние одним снимком.
package session

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/guia-comercial/internal/gateway"
	"github.com/magabrotheeeer/guia-comercial/internal/http/response"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/webflow"
)

// bootstrapRequest тело запроса на загрузку приложения.
type bootstrapRequest struct {
	PageURL string `json:"page_url" validate:"required,url"`
}

// Handler управляет HTTP-запросами на загрузку приложения.
type Handler struct {
	log          *slog.Logger
	gateway      *gateway.Gateway
	events       webflow.EventSource
	dropArtifact func(accessToken string)
	validate     *validator.Validate
}

// New создает новый Handler. dropArtifact удаляет серверную запись
// сессии при очистке хранилища; может быть nil.
func New(log *slog.Logger, gw *gateway.Gateway, events webflow.EventSource,
	dropArtifact func(accessToken string)) *Handler {
	return &Handler{
		log:          log,
		gateway:      gw,
		events:       events,
		dropArtifact: dropArtifact,
		validate:     validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Загрузить состояние приложения
// @Description Выполняет последовательность загрузки: справочники, восстановление сессии, обработку возврата с оплаты и выбор представления. Токен в Authorization необязателен.
// @Tags Session
// @Accept  json
// @Produce  json
// @Param request body bootstrapRequest true "Адрес загружаемой страницы"
// @Success 200 {object} map[string]any "Снимок состояния приложения"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /session/bootstrap [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.bootstrap"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req bootstrapRequest
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

	// Сессия необязательна: без токена загрузка идет как публичная.
	token := ""
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	flow := webflow.NewFlow(h.gateway.ForToken(token), h.events, h.dropArtifact, h.log)
	defer flow.Close()

	snapshot := flow.Run(r.Context(), req.PageURL)

	log.Info("bootstrap completed",
		slog.String("view", string(snapshot.View)),
		slog.Bool("verifying", snapshot.Verifying))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"snapshot": snapshot,
	}))
}
