// Package services содержит бизнес-логику платежей: создание платёжных
// преференций Mercado Pago и серверную проверку платежей с активацией плана.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
	"github.com/magabrotheeeer/guia-comercial/internal/paymentprovider"
)

// PlanActiveDays срок действия оплаченного плана.
const PlanActiveDays = 30

// Ошибки проверки платежа.
var (
	ErrFreePlanNotPayable = errors.New("free plan cannot be paid")
	ErrReferenceMismatch  = errors.New("payment belongs to another user")
)

var verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_verifications_total",
	Help: "Total number of payment verification attempts by result.",
}, []string{"result"})

// Provider описывает контракт платёжного провайдера.
type Provider interface {
	CreatePreference(req paymentprovider.CreatePreferenceRequest) (*paymentprovider.CreatePreferenceResponse, error)
	GetPayment(paymentID string) (*paymentprovider.Payment, error)
}

// PlanRepository читает тарифы.
type PlanRepository interface {
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
}

// HistoryRepository проверяет, был ли платёж уже обработан.
type HistoryRepository interface {
	ExistsHistoryEntryByPaymentID(ctx context.Context, paymentID string) (bool, error)
}

// PlanActivator активирует план пользователю.
type PlanActivator interface {
	ActivatePlan(ctx context.Context, userUID, planID, paymentID string, amount float64, days int) (time.Time, error)
}

// PaymentService реализует создание преференций и проверку платежей.
type PaymentService struct {
	provider Provider
	plans    PlanRepository
	history  HistoryRepository
	profiles PlanActivator
	siteURL  string
	log      *slog.Logger
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(provider Provider, plans PlanRepository, history HistoryRepository,
	profiles PlanActivator, siteURL string, log *slog.Logger) *PaymentService {
	return &PaymentService{
		provider: provider,
		plans:    plans,
		history:  history,
		profiles: profiles,
		siteURL:  siteURL,
		log:      log,
	}
}

// CreatePreference создает платёжную преференцию для покупки плана
// и возвращает init_point для редиректа на страницу оплаты.
func (s *PaymentService) CreatePreference(ctx context.Context, userUID string, req models.DummyPreference) (string, error) {
	plan, err := s.plans.GetPlan(ctx, req.PlanID)
	if err != nil {
		return "", fmt.Errorf("unknown plan %q: %w", req.PlanID, err)
	}
	if plan.ID == models.FreePlanID || plan.Precio <= 0 {
		return "", ErrFreePlanNotPayable
	}

	origin := strings.TrimSuffix(req.Origin, "/")
	if origin == "" {
		origin = strings.TrimSuffix(s.siteURL, "/")
	}

	reference, err := json.Marshal(paymentprovider.ExternalReference{
		UserID: userUID,
		PlanID: plan.ID,
	})
	if err != nil {
		return "", err
	}

	resp, err := s.provider.CreatePreference(paymentprovider.CreatePreferenceRequest{
		Items: []paymentprovider.PreferenceItem{
			{
				Title:      fmt.Sprintf("Plan %s - Guía Comercial", plan.Nombre),
				Quantity:   1,
				UnitPrice:  plan.Precio,
				CurrencyID: "ARS",
			},
		},
		BackURLs: paymentprovider.BackURLs{
			Success: origin + "/?status=approved",
			Failure: origin + "/?status=failure",
			Pending: origin + "/?status=pending",
		},
		AutoReturn:        "approved",
		ExternalReference: string(reference),
		NotificationURL:   strings.TrimSuffix(s.siteURL, "/") + "/api/v1/payments/webhook",
	})
	if err != nil {
		return "", err
	}

	s.log.Info("created payment preference",
		slog.String("user_uid", userUID),
		slog.String("plan_id", plan.ID),
		slog.String("preference_id", resp.ID))
	return resp.InitPoint, nil
}

// Verify запрашивает платёж у провайдера и, если он подтверждён,
// активирует оплаченный план. Повторная проверка того же платежа
// не продлевает план второй раз.
func (s *PaymentService) Verify(ctx context.Context, paymentID, requesterUID string) (*models.VerificationResult, error) {
	payment, err := s.provider.GetPayment(paymentID)
	if err != nil {
		verificationsTotal.WithLabelValues("provider_error").Inc()
		return nil, err
	}

	var reference paymentprovider.ExternalReference
	if err := json.Unmarshal([]byte(payment.ExternalReference), &reference); err != nil {
		verificationsTotal.WithLabelValues("bad_reference").Inc()
		return nil, fmt.Errorf("malformed external reference: %w", err)
	}
	if requesterUID != "" && requesterUID != reference.UserID {
		verificationsTotal.WithLabelValues("mismatch").Inc()
		return nil, ErrReferenceMismatch
	}

	if !models.PaymentStatus(payment.Status).Approved() {
		verificationsTotal.WithLabelValues("not_approved").Inc()
		return &models.VerificationResult{
			Success: false,
			Error:   fmt.Sprintf("payment status is %q, not approved", payment.Status),
		}, nil
	}

	processed, err := s.history.ExistsHistoryEntryByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if processed {
		verificationsTotal.WithLabelValues("duplicate").Inc()
		s.log.Info("payment already processed", slog.String("payment_id", paymentID))
		return &models.VerificationResult{
			Success: true,
			PlanID:  reference.PlanID,
			UserUID: reference.UserID,
		}, nil
	}

	expiresAt, err := s.profiles.ActivatePlan(ctx, reference.UserID, reference.PlanID,
		paymentID, payment.TransactionAmount, PlanActiveDays)
	if err != nil {
		verificationsTotal.WithLabelValues("activation_error").Inc()
		return nil, err
	}

	verificationsTotal.WithLabelValues("approved").Inc()
	s.log.Info("payment verified and plan activated",
		slog.String("payment_id", paymentID),
		slog.String("user_uid", reference.UserID),
		slog.String("plan_id", reference.PlanID))
	return &models.VerificationResult{
		Success:   true,
		PlanID:    reference.PlanID,
		UserUID:   reference.UserID,
		ExpiresAt: expiresAt,
	}, nil
}

// ProcessWebhookEvent обрабатывает уведомление провайдера. Интересуют
// только события платежей; проверка та же, что и для возврата с оплаты.
func (s *PaymentService) ProcessWebhookEvent(ctx context.Context, eventType, paymentID string) error {
	if eventType != "payment" || paymentID == "" {
		return nil
	}
	_, err := s.Verify(ctx, paymentID, "")
	return err
}
