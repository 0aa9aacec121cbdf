package webflow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// Flow собирает сценарий загрузки целиком: хранилище сессии,
// координатор, реконсилиатор возвратов с оплаты, секвенсор загрузки
// и наблюдатель событий авторизации.
type Flow struct {
	gateway Gateway
	store   *SessionStore
	coord   *Coordinator
	notif   *Notifier

	reconciler *Reconciler
	bootstrap  *Bootstrap
	watcher    *AuthWatcher

	unsubscribe func()
	log         *slog.Logger

	mu   sync.RWMutex
	view View
}

// Snapshot моментальное состояние сценария для отдачи клиенту.
type Snapshot struct {
	View         View                 `json:"view"`
	CleanURL     string               `json:"clean_url,omitempty"`
	Initializing bool                 `json:"initializing"`
	Verifying    bool                 `json:"verifying"`
	EscapeShown  bool                 `json:"escape_shown"`
	Notification *models.Notification `json:"notification,omitempty"`
	Session      *models.Session      `json:"session,omitempty"`
	Profile      *models.Profile      `json:"profile,omitempty"`
	AppData      *models.AppData      `json:"app_data,omitempty"`
}

// NewFlow создает новый экземпляр Flow и подписывает наблюдатель на
// источник событий авторизации. Подписка живёт до вызова Close.
func NewFlow(gateway Gateway, events EventSource, dropArtifact func(accessToken string), log *slog.Logger) *Flow {
	f := &Flow{
		gateway: gateway,
		store:   NewSessionStore(dropArtifact),
		coord:   NewCoordinator(),
		notif:   NewNotifier(DefaultNotificationTTL),
		log:     log,
		view:    ViewHome,
	}
	f.reconciler = NewReconciler(gateway, f.store, f.coord, f.notif, f.Navigate, log)
	f.bootstrap = NewBootstrap(gateway, f.store, f.coord, f.reconciler, f.Navigate, log)
	f.watcher = NewAuthWatcher(gateway, f.store, f.coord, f.Navigate, f.CurrentView, log)

	f.unsubscribe = events.Subscribe(func(ev Event) {
		f.watcher.HandleEvent(context.Background(), ev)
	})
	return f
}

// Run выполняет последовательность загрузки для адреса страницы и
// возвращает итоговое состояние.
func (f *Flow) Run(ctx context.Context, pageURL string) *Snapshot {
	appData, cleanURL := f.bootstrap.Run(ctx, pageURL)

	snap := f.SnapshotState()
	snap.AppData = appData
	snap.CleanURL = cleanURL
	return snap
}

// Navigate переводит сценарий на указанное представление.
func (f *Flow) Navigate(v View) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = v
}

// CurrentView возвращает текущее представление.
func (f *Flow) CurrentView() View {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.view
}

// SnapshotState возвращает моментальное состояние сценария.
func (f *Flow) SnapshotState() *Snapshot {
	return &Snapshot{
		View:         f.CurrentView(),
		Initializing: f.coord.Initializing(),
		Verifying:    f.coord.Verifying(),
		EscapeShown:  f.coord.EscapeRevealed(),
		Notification: f.notif.Current(),
		Session:      f.store.Session(),
		Profile:      f.store.Profile(),
	}
}

// Store открывает доступ к хранилищу сессии.
func (f *Flow) Store() *SessionStore {
	return f.store
}

// Coordinator открывает доступ к координатору.
func (f *Flow) Coordinator() *Coordinator {
	return f.coord
}

// Notifier открывает доступ к уведомлениям.
func (f *Flow) Notifier() *Notifier {
	return f.notif
}

// Reconciler открывает доступ к обработчику возвратов с оплаты.
func (f *Flow) Reconciler() *Reconciler {
	return f.reconciler
}

// Close отписывает наблюдатель от событий авторизации.
func (f *Flow) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
}
