// Package webhook реализует приём уведомлений платёжного провайдера.
// Подпись запроса проверяется по схеме Mercado Pago: HMAC-SHA256 от
// манифеста id/request-id/ts с секретом вебхука.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
)

// Service описывает интерфейс обработки события провайдера.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, eventType, paymentID string) error
}

// Handler принимает и проверяет уведомления провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload тело уведомления провайдера.
type Payload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"` // payment ID
	} `json:"data"`
}

// verifySignature проверяет заголовок x-signature вида "ts=...,v1=...".
// Подпись считается от манифеста id/request-id/ts.
func (h *Handler) verifySignature(r *http.Request, dataID string) bool {
	signature := r.Header.Get("x-signature")
	if signature == "" {
		return false
	}

	var ts, v1 string
	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, r.Header.Get("x-request-id"), ts)
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(v1))
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Принимает события payment.* и передает их в идемпотентную проверку платежа.
// @Tags Payments
// @Accept  json
// @Success 200 "Событие принято"
// @Failure 400 "Некорректное тело запроса"
// @Failure 401 "Неверная подпись"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !h.verifySignature(r, payload.Data.ID) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.service.ProcessWebhookEvent(r.Context(), payload.Type, payload.Data.ID); err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("webhook processed successfully",
		slog.String("type", payload.Type),
		slog.String("payment_id", payload.Data.ID))
	w.WriteHeader(http.StatusOK)
}
