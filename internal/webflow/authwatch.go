package webflow

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
)

// AuthWatcher реагирует на асинхронные события авторизации после
// начальной загрузки: вход из другой вкладки, выход, обновление токена.
// Обработчик никогда не паникует наружу: упавшая подписка осталась бы
// в неопределённом состоянии для всех последующих событий.
type AuthWatcher struct {
	gateway     Gateway
	store       *SessionStore
	coord       *Coordinator
	navigate    func(View)
	currentView func() View
	log         *slog.Logger
}

// NewAuthWatcher создает новый экземпляр AuthWatcher.
func NewAuthWatcher(gateway Gateway, store *SessionStore, coord *Coordinator,
	navigate func(View), currentView func() View, log *slog.Logger) *AuthWatcher {
	return &AuthWatcher{
		gateway:     gateway,
		store:       store,
		coord:       coord,
		navigate:    navigate,
		currentView: currentView,
		log:         log,
	}
}

// HandleEvent обрабатывает одно событие авторизации.
func (w *AuthWatcher) HandleEvent(ctx context.Context, ev Event) {
	const op = "webflow.AuthWatcher.HandleEvent"

	defer func() {
		if rec := recover(); rec != nil {
			w.log.Error("auth event handler panicked",
				slog.String("op", op), slog.String("event", ev.Type), slog.Any("panic", rec))
		}
	}()

	// Источник событий общий для всех пользователей процесса:
	// события чужой личности этому сценарию не принадлежат.
	if w.foreign(ev) {
		w.log.Info("auth event for another identity ignored",
			slog.String("op", op), slog.String("event", ev.Type))
		return
	}

	switch ev.Type {
	case EventSignedIn:
		w.handleSignedIn(ctx, ev)
	case EventSignedOut:
		w.store.Clear()
		w.navigate(ViewHome)
	case EventTokenRefreshed:
		if ev.Session == nil {
			w.log.Warn("token_refreshed event without session", slog.String("op", op))
			return
		}
		// Только токен: ни перезагрузки профиля, ни навигации.
		w.store.SetSession(ev.Session)
	default:
		w.log.Warn("unknown auth event", slog.String("op", op), slog.String("event", ev.Type))
	}
}

// foreign сообщает, касается ли событие не того пользователя, которым
// владеет хранилище. Пока владелец не установлен, сценарий принимает
// первую личность как свою.
func (w *AuthWatcher) foreign(ev Event) bool {
	owner := w.store.Owner()
	if owner == "" {
		return false
	}
	uid := ev.UserUID
	if uid == "" && ev.Session != nil {
		uid = ev.Session.UserUID
	}
	return uid != owner
}

func (w *AuthWatcher) handleSignedIn(ctx context.Context, ev Event) {
	const op = "webflow.AuthWatcher.handleSignedIn"

	if ev.Session == nil {
		w.log.Warn("signed_in event without session", slog.String("op", op))
		return
	}

	prev := w.store.Session()
	sameIdentity := prev != nil && prev.UserUID == ev.Session.UserUID
	w.store.SetSession(ev.Session)

	// Тот же пользователь с уже загруженным профилем: это пришёл
	// обновлённый токен, перезагрузка профиля не нужна.
	if sameIdentity && w.store.Profile() != nil {
		return
	}

	// Во время блокирующей проверки платежа профилем владеет Reconciler.
	if w.coord.Verifying() {
		w.log.Info("profile load suppressed by payment verification", sl.UID(ev.Session.UserUID))
		return
	}

	loadProfile(ctx, w.gateway, w.store, w.coord, w.log, ev.Session.UserUID)

	if w.currentView().IsPublic() {
		w.navigate(ViewDashboard)
	}
}
