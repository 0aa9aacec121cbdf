// Package read реализует HTTP-обработчик получения публикации комерса
// по идентификатору или slug.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/guia-comercial/internal/http/response"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// Handler обрабатывает запросы на чтение публикации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения публикации.
type Service interface {
	Read(ctx context.Context, id string) (*models.Comercio, error)
	ReadBySlug(ctx context.Context, slug string) (*models.Comercio, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить публикацию
// @Description Возвращает публикацию комерса по ID. Публичный эндпоинт.
// @Tags Comercios
// @Produce  json
// @Param id path string true "ID публикации"
// @Success 200 {object} map[string]any "Публикация"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /comercios/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.comercio.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("missing id in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing id in url"))
		return
	}

	comercio, err := h.service.Read(r.Context(), id)
	if err != nil {
		log.Error("failed to read comercio", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read comercio"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"comercio": comercio,
	}))
}

// BySlug godoc
// @Summary Получить публикацию по slug
// @Description Возвращает публикацию комерса по её slug. Публичный эндпоинт.
// @Tags Comercios
// @Produce  json
// @Param slug path string true "Slug публикации"
// @Success 200 {object} map[string]any "Публикация"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /comercios/slug/{slug} [get]
func (h *Handler) BySlug(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.comercio.read.BySlug"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	slug := chi.URLParam(r, "slug")
	if slug == "" {
		log.Error("missing slug in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing slug in url"))
		return
	}

	comercio, err := h.service.ReadBySlug(r.Context(), slug)
	if err != nil {
		log.Error("failed to read comercio by slug", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read comercio"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"comercio": comercio,
	}))
}
