// Package appdata реализует HTTP-обработчик выдачи публичных
// справочных данных каталога: локаций, рубрик, планов и комерсов
// с агрегатами отзывов.
package appdata

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/guia-comercial/internal/http/response"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// Handler обрабатывает запросы на справочные данные.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс сборки справочных данных.
type Service interface {
	FetchAppData(ctx context.Context) (*models.AppData, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить справочные данные
// @Description Возвращает локации, рубрики, планы и каталог комерсов. Публичный эндпоинт с кешем.
// @Tags AppData
// @Produce  json
// @Success 200 {object} map[string]any "Справочные данные каталога"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /appdata [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.appdata"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	data, err := h.service.FetchAppData(r.Context())
	if err != nil {
		log.Error("failed to fetch app data", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not fetch app data"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"app_data": data,
	}))
}
