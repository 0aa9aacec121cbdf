// Package webflow реализует клиентский сценарий загрузки приложения:
// восстановление сессии, обработку возврата с оплаты и реакцию на
// асинхронные события авторизации. Вся логика собрана вокруг явного
// координатора с одноразовыми защёлками вместо разрозненных флагов.
package webflow

import (
	"context"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// Gateway абстрагирует удалённые данные, которые нужны сценарию загрузки:
// сессию, профиль, проверку платежа и публичные справочники.
type Gateway interface {
	GetSession(ctx context.Context) (*models.Session, error)
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userUID string, patch models.DummyProfilePatch) error
	InvokeVerification(ctx context.Context, paymentID string) (*models.VerificationResult, error)
	FetchReferenceData(ctx context.Context) (*models.AppData, error)
}

// Типы событий авторизации, доставляемых EventSource.
const (
	EventSignedIn       = "signed_in"
	EventSignedOut      = "signed_out"
	EventTokenRefreshed = "token_refreshed"
)

// Event описывает одно изменение состояния авторизации.
// UserUID задаёт личность, которой событие касается: она заполняется
// и для signed_out, когда сессии в событии уже нет.
type Event struct {
	Type    string
	UserUID string
	Session *models.Session
}

// EventSource доставляет события авторизации. Subscribe возвращает
// функцию отписки; подписка живёт всё время работы Flow.
type EventSource interface {
	Subscribe(handler func(Event)) (unsubscribe func())
}
