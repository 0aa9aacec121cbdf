package webflow

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// Bootstrap упорядочивает первую загрузку приложения: справочники,
// восстановление сессии, условную загрузку профиля и выбор стартового
// представления. Согласован с Reconciler, чтобы профиль не грузился
// дважды на возврате с оплаты.
type Bootstrap struct {
	gateway    Gateway
	store      *SessionStore
	coord      *Coordinator
	reconciler *Reconciler
	navigate   func(View)
	log        *slog.Logger
}

// NewBootstrap создает новый экземпляр Bootstrap.
func NewBootstrap(gateway Gateway, store *SessionStore, coord *Coordinator,
	reconciler *Reconciler, navigate func(View), log *slog.Logger) *Bootstrap {
	return &Bootstrap{
		gateway:    gateway,
		store:      store,
		coord:      coord,
		reconciler: reconciler,
		navigate:   navigate,
		log:        log,
	}
}

// Run выполняет последовательность загрузки один раз за жизнь страницы.
// Повторный вызов под собственной защёлкой ничего не делает. Индикатор
// загрузки снимается при любом исходе. Второе возвращаемое значение —
// очищенный от платёжных параметров URL, если загрузка была возвратом
// с оплаты.
func (b *Bootstrap) Run(ctx context.Context, pageURL string) (*models.AppData, string) {
	const op = "webflow.Bootstrap.Run"

	if !b.coord.TryClaimBootstrap() {
		return nil, ""
	}
	b.coord.SetInitializing(true)
	defer b.coord.SetInitializing(false)

	// Синхронная часть обнаружения возврата выполняется до первого
	// сетевого вызова, чтобы защёлка была выставлена раньше, чем
	// кто-либо решит грузить профиль.
	ret, isReturn := b.reconciler.Detect(pageURL)

	appData, err := b.gateway.FetchReferenceData(ctx)
	if err != nil {
		b.log.Error("failed to fetch reference data", slog.String("op", op), sl.Err(err))
	}

	session, err := b.gateway.GetSession(ctx)
	if err != nil {
		b.log.Error("failed to recover session", slog.String("op", op), sl.Err(err))
		session = nil
	}
	b.store.SetSession(session)

	// Профиль грузится здесь только если возврат с оплаты не захватил
	// загрузку: на возврате профилем владеет Reconciler.
	if session != nil && !isReturn {
		loadProfile(ctx, b.gateway, b.store, b.coord, b.log, session.UserUID)
	}

	if isReturn {
		b.reconciler.Resolve(ctx, ret)
		return appData, ret.CleanURL
	}

	requested := ViewForPath(pagePath(pageURL))
	if session != nil && b.store.Profile() != nil && requested == ViewHome {
		requested = ViewDashboard
	}
	b.navigate(Resolve(session, b.store.Profile(), requested))
	return appData, ""
}
