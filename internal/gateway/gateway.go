// Package gateway связывает сценарий загрузки webflow с сервисами
// приложения: сессии, профили, проверка платежей и справочные данные.
// Экземпляр привязывается к токену конкретного запроса через ForToken.
package gateway

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/guia-comercial/internal/authbus"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
	paymentservice "github.com/magabrotheeeer/guia-comercial/internal/services/payment"
	profileservice "github.com/magabrotheeeer/guia-comercial/internal/services/profile"
	referenceservice "github.com/magabrotheeeer/guia-comercial/internal/services/referencedata"
	"github.com/magabrotheeeer/guia-comercial/internal/webflow"
)

// SessionValidator проверяет токен и отдаёт сессию без обращения к базе.
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.Session, bool, error)
}

// SessionDropper удаляет серверную запись сессии.
type SessionDropper interface {
	Logout(ctx context.Context, token string) error
}

// Gateway реализует webflow.Gateway поверх сервисов приложения.
type Gateway struct {
	auth      SessionValidator
	profiles  *profileservice.ProfileService
	payments  *paymentservice.PaymentService
	reference *referenceservice.ReferenceDataService
	log       *slog.Logger

	// token токен текущего запроса; пустой токен означает
	// отсутствие сессии.
	token string
}

// New создает новый экземпляр Gateway без привязки к токену.
func New(auth SessionValidator, profiles *profileservice.ProfileService,
	payments *paymentservice.PaymentService, reference *referenceservice.ReferenceDataService,
	log *slog.Logger) *Gateway {
	return &Gateway{
		auth:      auth,
		profiles:  profiles,
		payments:  payments,
		reference: reference,
		log:       log,
	}
}

// ForToken возвращает копию шлюза, привязанную к токену запроса.
func (g *Gateway) ForToken(token string) *Gateway {
	bound := *g
	bound.token = token
	return &bound
}

// GetSession восстанавливает сессию по привязанному токену.
// Невалидный или отсутствующий токен — это отсутствие сессии, не ошибка.
func (g *Gateway) GetSession(ctx context.Context) (*models.Session, error) {
	if g.token == "" {
		return nil, nil
	}
	session, ok, err := g.auth.ValidateToken(ctx, g.token)
	if err != nil || !ok {
		return nil, nil
	}
	return session, nil
}

// GetProfile возвращает профиль пользователя.
func (g *Gateway) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	return g.profiles.Get(ctx, userUID)
}

// UpdateProfile обновляет изменяемые поля профиля.
func (g *Gateway) UpdateProfile(ctx context.Context, userUID string, patch models.DummyProfilePatch) error {
	_, err := g.profiles.Update(ctx, userUID, patch)
	return err
}

// InvokeVerification проверяет платеж у провайдера и активирует план.
// Идемпотентна по идентификатору платежа.
func (g *Gateway) InvokeVerification(ctx context.Context, paymentID string) (*models.VerificationResult, error) {
	requesterUID := ""
	if session, err := g.GetSession(ctx); err == nil && session != nil {
		requesterUID = session.UserUID
	}
	return g.payments.Verify(ctx, paymentID, requesterUID)
}

// FetchReferenceData возвращает публичные справочные данные каталога.
func (g *Gateway) FetchReferenceData(ctx context.Context) (*models.AppData, error) {
	return g.reference.FetchAppData(ctx)
}

// EventSource адаптирует внутреннюю шину авторизации к контракту
// webflow.EventSource.
type EventSource struct {
	bus  *authbus.Bus
	auth SessionValidator
}

// NewEventSource создает новый экземпляр EventSource.
func NewEventSource(bus *authbus.Bus, auth SessionValidator) *EventSource {
	return &EventSource{bus: bus, auth: auth}
}

// Subscribe подписывает обработчик на события авторизации.
func (e *EventSource) Subscribe(handler func(webflow.Event)) func() {
	return e.bus.Subscribe(func(ev authbus.Event) {
		handler(e.translate(ev))
	})
}

func (e *EventSource) translate(ev authbus.Event) webflow.Event {
	out := webflow.Event{Type: ev.Type, UserUID: ev.UserUID}
	if ev.AccessToken != "" {
		if session, ok, err := e.auth.ValidateToken(context.Background(), ev.AccessToken); err == nil && ok {
			out.Session = session
			out.UserUID = session.UserUID
			return out
		}
		out.Session = &models.Session{
			AccessToken: ev.AccessToken,
			UserUID:     ev.UserUID,
			Email:       ev.Email,
		}
	}
	return out
}
