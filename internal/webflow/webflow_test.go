package webflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetSession(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockGateway) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockGateway) UpdateProfile(ctx context.Context, userUID string, patch models.DummyProfilePatch) error {
	args := m.Called(ctx, userUID, patch)
	return args.Error(0)
}

func (m *MockGateway) InvokeVerification(ctx context.Context, paymentID string) (*models.VerificationResult, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationResult), args.Error(1)
}

func (m *MockGateway) FetchReferenceData(ctx context.Context) (*models.AppData, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppData), args.Error(1)
}

// fakeEvents синтетический источник событий авторизации для тестов.
type fakeEvents struct {
	mu           sync.Mutex
	handler      func(Event)
	unsubscribed bool
}

func (f *fakeEvents) Subscribe(handler func(Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubscribed = true
		f.handler = nil
	}
}

func (f *fakeEvents) emit(ev Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testSession() *models.Session {
	return &models.Session{
		AccessToken: "token-1",
		UserUID:     "user-1",
		Email:       "user@example.com",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func newTestFlow(gateway *MockGateway) (*Flow, *fakeEvents) {
	events := &fakeEvents{}
	return NewFlow(gateway, events, nil, newNoopLogger()), events
}

func TestReconciler_IdempotentProcessing(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("InvokeVerification", mock.Anything, "123").
		Return(&models.VerificationResult{Success: true}, nil).Once()
	gateway.On("GetProfile", mock.Anything, "user-1").
		Return(&models.Profile{UID: "user-1", PlanID: "premium"}, nil)

	flow, _ := newTestFlow(gateway)
	defer flow.Close()
	flow.Store().SetSession(testSession())
	r := flow.Reconciler()

	pageURL := "https://guia.example/?payment_id=123&status=approved"

	// два быстрых рендера наблюдают один и тот же URL
	ret, ok := r.Detect(pageURL)
	require.True(t, ok)
	_, okAgain := r.Detect(pageURL)
	assert.False(t, okAgain, "second render must not re-claim the payment return")

	r.Resolve(context.Background(), ret)

	gateway.AssertNumberOfCalls(t, "InvokeVerification", 1)
}

func TestAuthWatcher_NoProfileDoubleLoadDuringVerification(t *testing.T) {
	release := make(chan struct{})
	gateway := new(MockGateway)
	gateway.On("InvokeVerification", mock.Anything, "abc").
		Run(func(mock.Arguments) { <-release }).
		Return(&models.VerificationResult{Success: true}, nil).Once()
	gateway.On("GetProfile", mock.Anything, "user-1").
		Return(&models.Profile{UID: "user-1", PlanID: "premium"}, nil)

	flow, events := newTestFlow(gateway)
	defer flow.Close()
	flow.Store().SetSession(testSession())
	r := flow.Reconciler()

	ret, ok := r.Detect("https://guia.example/?payment_id=abc&status=approved")
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		r.Resolve(context.Background(), ret)
		close(done)
	}()

	require.Eventually(t, flow.Coordinator().Verifying, time.Second, time.Millisecond,
		"verification must enter the blocking window")

	// конкурентный вход во время блокирующей проверки
	events.emit(Event{Type: EventSignedIn, Session: testSession()})
	gateway.AssertNotCalled(t, "GetProfile")

	close(release)
	<-done

	// профиль загрузил только сам Reconciler после проверки
	gateway.AssertNumberOfCalls(t, "GetProfile", 1)
}

func TestReconciler_Classification(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedKind string
		verifyCalled bool
	}{
		{"rejected is an error without verification", "payment_id=1&status=rejected", models.NotificationError, false},
		{"failure is an error without verification", "payment_id=1&status=failure", models.NotificationError, false},
		{"null literal is an error without verification", "payment_id=1&status=null", models.NotificationError, false},
		{"pending notifies without verification", "payment_id=1&status=pending", models.NotificationSuccess, false},
		{"in_process notifies without verification", "payment_id=1&status=in_process", models.NotificationSuccess, false},
		{"approved with id verifies", "payment_id=1&status=approved", models.NotificationSuccess, true},
		{"success with id verifies", "payment_id=1&status=success", models.NotificationSuccess, true},
		{"approved without id is a malformed return", "status=approved", models.NotificationError, false},
		{"success without id is a malformed return", "status=success", models.NotificationError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := new(MockGateway)
			if tt.verifyCalled {
				gateway.On("InvokeVerification", mock.Anything, "1").
					Return(&models.VerificationResult{Success: true}, nil).Once()
			}
			gateway.On("GetProfile", mock.Anything, "user-1").
				Return(&models.Profile{UID: "user-1"}, nil).Maybe()

			flow, _ := newTestFlow(gateway)
			defer flow.Close()
			flow.Store().SetSession(testSession())
			r := flow.Reconciler()

			ret, ok := r.Detect("https://guia.example/?" + tt.query)
			require.True(t, ok)
			r.Resolve(context.Background(), ret)

			notif := flow.Notifier().Current()
			require.NotNil(t, notif)
			assert.Equal(t, tt.expectedKind, notif.Kind)
			if !tt.verifyCalled {
				gateway.AssertNotCalled(t, "InvokeVerification")
			}
			gateway.AssertExpectations(t)
		})
	}
}

func TestReconciler_URLSanitization(t *testing.T) {
	gateway := new(MockGateway)
	flow, _ := newTestFlow(gateway)
	defer flow.Close()

	ret, ok := flow.Reconciler().Detect(
		"https://guia.example/precios?payment_id=99&status=rejected&collection_status=rejected" +
			"&payment_type=credit_card&merchant_order_id=777&preference_id=pref-1&tab=planes")
	require.True(t, ok)

	for _, p := range []string{"payment_id", "status", "collection_status", "payment_type", "merchant_order_id", "preference_id"} {
		assert.NotContains(t, ret.CleanURL, p)
	}
	// посторонние параметры и путь сохраняются
	assert.Contains(t, ret.CleanURL, "tab=planes")
	assert.True(t, strings.HasPrefix(ret.CleanURL, "https://guia.example/precios"))
}

func TestReconciler_BlockingFlagAlwaysClears(t *testing.T) {
	tests := []struct {
		name   string
		result *models.VerificationResult
		err    error
	}{
		{"verification succeeds", &models.VerificationResult{Success: true}, nil},
		{"verification rejects", &models.VerificationResult{Success: false, Error: "payment not approved"}, nil},
		{"verification call fails", nil, errors.New("network down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := new(MockGateway)
			gateway.On("InvokeVerification", mock.Anything, "42").Return(tt.result, tt.err).Once()
			gateway.On("GetProfile", mock.Anything, "user-1").
				Return(&models.Profile{UID: "user-1"}, nil).Maybe()

			flow, _ := newTestFlow(gateway)
			defer flow.Close()
			flow.Store().SetSession(testSession())
			r := flow.Reconciler()

			ret, ok := r.Detect("https://guia.example/?payment_id=42&status=approved")
			require.True(t, ok)
			r.Resolve(context.Background(), ret)

			assert.False(t, flow.Coordinator().Verifying(), "blocking flag must clear on every path")
			assert.False(t, flow.Coordinator().EscapeRevealed())
		})
	}
}

func TestReconciler_SafetyTimerRevealsEscape(t *testing.T) {
	release := make(chan struct{})
	gateway := new(MockGateway)
	gateway.On("InvokeVerification", mock.Anything, "42").
		Run(func(mock.Arguments) { <-release }).
		Return(&models.VerificationResult{Success: true}, nil).Once()
	gateway.On("GetProfile", mock.Anything, "user-1").
		Return(&models.Profile{UID: "user-1"}, nil).Once()

	flow, _ := newTestFlow(gateway)
	defer flow.Close()
	flow.Store().SetSession(testSession())
	r := flow.Reconciler()
	r.safetyTimeout = 10 * time.Millisecond

	ret, ok := r.Detect("https://guia.example/?payment_id=42&status=approved")
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		r.Resolve(context.Background(), ret)
		close(done)
	}()

	require.Eventually(t, flow.Coordinator().EscapeRevealed, time.Second, time.Millisecond,
		"escape affordance must appear while the call is still in flight")
	assert.True(t, flow.Coordinator().Verifying(), "escape does not cancel the verification call")

	close(release)
	<-done
	assert.False(t, flow.Coordinator().EscapeRevealed())
}

func TestReconciler_VerifiedWithoutSessionAsksToSignIn(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("InvokeVerification", mock.Anything, "42").
		Return(&models.VerificationResult{Success: true}, nil).Once()

	flow, _ := newTestFlow(gateway)
	defer flow.Close()
	r := flow.Reconciler()

	ret, ok := r.Detect("https://guia.example/?payment_id=42&status=approved")
	require.True(t, ok)
	r.Resolve(context.Background(), ret)

	assert.Equal(t, ViewAuth, flow.CurrentView())
	notif := flow.Notifier().Current()
	require.NotNil(t, notif)
	assert.Equal(t, models.NotificationSuccess, notif.Kind)
	gateway.AssertNotCalled(t, "GetProfile")
}

func TestReconciler_RejectedReturnNavigatesToPricing(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("FetchReferenceData", mock.Anything).Return(&models.AppData{}, nil).Once()
	gateway.On("GetSession", mock.Anything).Return(testSession(), nil).Once()

	flow, _ := newTestFlow(gateway)
	defer flow.Close()

	snap := flow.Run(context.Background(), "https://guia.example/?payment_id=9&status=rejected")

	assert.Equal(t, ViewPricing, snap.View, "rejected return with a session lands on pricing")
	require.NotNil(t, snap.Notification)
	assert.Equal(t, models.NotificationError, snap.Notification.Kind)
	gateway.AssertNotCalled(t, "InvokeVerification")
}

func TestReconciler_RejectedReturnWithoutSessionGoesToAuth(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("FetchReferenceData", mock.Anything).Return(&models.AppData{}, nil).Once()
	gateway.On("GetSession", mock.Anything).Return(nil, nil).Once()

	flow, _ := newTestFlow(gateway)
	defer flow.Close()

	snap := flow.Run(context.Background(), "https://guia.example/?payment_id=9&status=rejected")

	assert.Equal(t, ViewAuth, snap.View)
	gateway.AssertNotCalled(t, "InvokeVerification")
}

func TestReconciler_PendingReturnNavigatesToDashboard(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("FetchReferenceData", mock.Anything).Return(&models.AppData{}, nil).Once()
	gateway.On("GetSession", mock.Anything).Return(testSession(), nil).Once()
	gateway.On("GetProfile", mock.Anything, "user-1").
		Return(&models.Profile{UID: "user-1", PlanID: "premium"}, nil).Once()

	flow, _ := newTestFlow(gateway)
	defer flow.Close()

	snap := flow.Run(context.Background(), "https://guia.example/?payment_id=9&status=pending")

	assert.Equal(t, ViewDashboard, snap.View, "pending return with a session lands on the dashboard")
	require.NotNil(t, snap.Profile)
	gateway.AssertNotCalled(t, "InvokeVerification")
	gateway.AssertNumberOfCalls(t, "GetProfile", 1)
}

func TestResolve_LoadingProfileNeverLoggedOut(t *testing.T) {
	session := testSession()

	got := Resolve(session, nil, ViewDashboard)
	assert.Equal(t, ViewLoadingProfile, got,
		"session without profile is a transient state, not a logged-out one")

	got = Resolve(session, &models.Profile{UID: "user-1"}, ViewDashboard)
	assert.Equal(t, ViewDashboard, got)

	got = Resolve(nil, nil, ViewDashboard)
	assert.Equal(t, ViewAuth, got)

	got = Resolve(nil, nil, ViewPricing)
	assert.Equal(t, ViewPricing, got)
}

func TestBootstrap_RunsOncePerPageLoad(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("FetchReferenceData", mock.Anything).Return(&models.AppData{}, nil).Once()
	gateway.On("GetSession", mock.Anything).Return(nil, nil).Once()

	flow, _ := newTestFlow(gateway)
	defer flow.Close()

	first := flow.Run(context.Background(), "https://guia.example/")
	second := flow.Run(context.Background(), "https://guia.example/")

	require.NotNil(t, first)
	assert.Nil(t, second.AppData, "double invoke must not repeat the sequence")
	gateway.AssertNumberOfCalls(t, "FetchReferenceData", 1)
	assert.Equal(t, ViewHome, flow.CurrentView())
	assert.False(t, flow.Coordinator().Initializing())
}

func TestBootstrap_SkipsProfileLoadOnPaymentReturn(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("FetchReferenceData", mock.Anything).Return(&models.AppData{}, nil).Once()
	gateway.On("GetSession", mock.Anything).Return(testSession(), nil).Once()
	gateway.On("InvokeVerification", mock.Anything, "55").
		Return(&models.VerificationResult{Success: true}, nil).Once()
	gateway.On("GetProfile", mock.Anything, "user-1").
		Return(&models.Profile{UID: "user-1", PlanID: "premium"}, nil)

	flow, _ := newTestFlow(gateway)
	defer flow.Close()

	snap := flow.Run(context.Background(), "https://guia.example/?payment_id=55&status=approved")

	// профиль загружен один раз — проверкой платежа, не секвенсором
	gateway.AssertNumberOfCalls(t, "GetProfile", 1)
	assert.Equal(t, ViewDashboard, snap.View)
	assert.NotContains(t, snap.CleanURL, "payment_id")
	assert.False(t, snap.Initializing)
}

func TestBootstrap_ReferenceDataFailureStillClearsLoading(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("FetchReferenceData", mock.Anything).Return(nil, errors.New("gateway timeout")).Once()
	gateway.On("GetSession", mock.Anything).Return(nil, errors.New("gateway timeout")).Once()

	flow, _ := newTestFlow(gateway)
	defer flow.Close()

	snap := flow.Run(context.Background(), "https://guia.example/panel")

	assert.False(t, snap.Initializing, "loading indicator must never stay forever")
	assert.Nil(t, snap.Session)
	assert.Equal(t, ViewAuth, snap.View, "protected deep link without session goes to auth")
}

func TestBootstrap_DeepLinkHonored(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("FetchReferenceData", mock.Anything).Return(&models.AppData{}, nil).Once()
	gateway.On("GetSession", mock.Anything).Return(testSession(), nil).Once()
	gateway.On("GetProfile", mock.Anything, "user-1").
		Return(&models.Profile{UID: "user-1"}, nil).Once()

	flow, _ := newTestFlow(gateway)
	defer flow.Close()

	snap := flow.Run(context.Background(), "https://guia.example/mensajes/conv-1")

	assert.Equal(t, ViewMensajes, snap.View)
	require.NotNil(t, snap.Profile)
}

func TestAuthWatcher_SignedOutClearsEverything(t *testing.T) {
	dropped := make([]string, 0, 1)
	gateway := new(MockGateway)
	events := &fakeEvents{}
	flow := NewFlow(gateway, events, func(token string) { dropped = append(dropped, token) }, newNoopLogger())
	defer flow.Close()

	flow.Store().SetSession(testSession())
	flow.Store().SetProfile(&models.Profile{UID: "user-1"})
	flow.Navigate(ViewDashboard)

	events.emit(Event{Type: EventSignedOut, UserUID: "user-1"})

	assert.Nil(t, flow.Store().Session())
	assert.Nil(t, flow.Store().Profile())
	assert.Equal(t, ViewHome, flow.CurrentView())
	assert.Equal(t, []string{"token-1"}, dropped, "clearing must drop the cached auth artifact")
}

func TestAuthWatcher_TokenRefreshOnlyUpdatesSession(t *testing.T) {
	gateway := new(MockGateway)
	flow, events := newTestFlow(gateway)
	defer flow.Close()

	flow.Store().SetSession(testSession())
	flow.Store().SetProfile(&models.Profile{UID: "user-1"})
	flow.Navigate(ViewDashboard)

	refreshed := testSession()
	refreshed.AccessToken = "token-2"
	events.emit(Event{Type: EventTokenRefreshed, Session: refreshed})

	assert.Equal(t, "token-2", flow.Store().Session().AccessToken)
	assert.Equal(t, ViewDashboard, flow.CurrentView())
	gateway.AssertNotCalled(t, "GetProfile")
}

func TestAuthWatcher_SameIdentityDoesNotReloadProfile(t *testing.T) {
	gateway := new(MockGateway)
	flow, events := newTestFlow(gateway)
	defer flow.Close()

	flow.Store().SetSession(testSession())
	flow.Store().SetProfile(&models.Profile{UID: "user-1"})

	again := testSession()
	again.AccessToken = "token-3"
	events.emit(Event{Type: EventSignedIn, Session: again})

	gateway.AssertNotCalled(t, "GetProfile")
	assert.Equal(t, "token-3", flow.Store().Session().AccessToken)
}

func TestAuthWatcher_SignInFromPublicViewNavigatesToDashboard(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("GetProfile", mock.Anything, "user-1").
		Return(&models.Profile{UID: "user-1"}, nil).Once()

	flow, events := newTestFlow(gateway)
	defer flow.Close()
	flow.Navigate(ViewAuth)

	events.emit(Event{Type: EventSignedIn, Session: testSession()})

	assert.Equal(t, ViewDashboard, flow.CurrentView())
	require.NotNil(t, flow.Store().Profile())
}

func TestAuthWatcher_ForeignSignInIgnored(t *testing.T) {
	gateway := new(MockGateway)
	flow, events := newTestFlow(gateway)
	defer flow.Close()

	flow.Store().SetSession(testSession())
	flow.Store().SetProfile(&models.Profile{UID: "user-1"})
	flow.Navigate(ViewDashboard)

	// конкурентный вход другого пользователя через общий источник событий
	other := &models.Session{AccessToken: "token-x", UserUID: "user-2", Email: "otro@example.com"}
	events.emit(Event{Type: EventSignedIn, UserUID: "user-2", Session: other})

	assert.Equal(t, "user-1", flow.Store().Session().UserUID,
		"a sign-in by another identity must not replace the owner's session")
	assert.Equal(t, "token-1", flow.Store().Session().AccessToken)
	assert.Equal(t, ViewDashboard, flow.CurrentView())
	gateway.AssertNotCalled(t, "GetProfile")
}

func TestAuthWatcher_ForeignSignOutIgnored(t *testing.T) {
	dropped := make([]string, 0, 1)
	gateway := new(MockGateway)
	events := &fakeEvents{}
	flow := NewFlow(gateway, events, func(token string) { dropped = append(dropped, token) }, newNoopLogger())
	defer flow.Close()

	flow.Store().SetSession(testSession())
	flow.Store().SetProfile(&models.Profile{UID: "user-1"})
	flow.Navigate(ViewDashboard)

	events.emit(Event{Type: EventSignedOut, UserUID: "user-2"})

	require.NotNil(t, flow.Store().Session(), "another user's logout must not clear this session")
	assert.Equal(t, "user-1", flow.Store().Session().UserUID)
	assert.Equal(t, ViewDashboard, flow.CurrentView())
	assert.Empty(t, dropped)
}

func TestAuthWatcher_ForeignTokenRefreshIgnored(t *testing.T) {
	gateway := new(MockGateway)
	flow, events := newTestFlow(gateway)
	defer flow.Close()

	flow.Store().SetSession(testSession())

	other := &models.Session{AccessToken: "token-x", UserUID: "user-2"}
	events.emit(Event{Type: EventTokenRefreshed, UserUID: "user-2", Session: other})

	assert.Equal(t, "token-1", flow.Store().Session().AccessToken)
	assert.Equal(t, "user-1", flow.Store().Session().UserUID)
}

func TestAuthWatcher_ProfileLoadFailureIsContained(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("GetProfile", mock.Anything, "user-1").
		Return(nil, errors.New("gateway timeout")).Once()

	flow, events := newTestFlow(gateway)
	defer flow.Close()

	require.NotPanics(t, func() {
		events.emit(Event{Type: EventSignedIn, Session: testSession()})
	})
	assert.NotNil(t, flow.Store().Session())
	assert.Nil(t, flow.Store().Profile(), "failed load leaves profile absent, not the app broken")
}

func TestFlow_CloseUnsubscribes(t *testing.T) {
	gateway := new(MockGateway)
	events := &fakeEvents{}
	flow := NewFlow(gateway, events, nil, newNoopLogger())

	flow.Close()

	assert.True(t, events.unsubscribed)
	events.emit(Event{Type: EventSignedIn, Session: testSession()})
	gateway.AssertNotCalled(t, "GetProfile")
}

func TestNotifier_QueueOfOne(t *testing.T) {
	n := NewNotifier(time.Hour)

	n.Error("primero")
	n.Success("segundo")

	current := n.Current()
	require.NotNil(t, current)
	assert.Equal(t, "segundo", current.Text)
	assert.Equal(t, models.NotificationSuccess, current.Kind)

	n.Dismiss()
	assert.Nil(t, n.Current())
}

func TestNotifier_AutoDismiss(t *testing.T) {
	n := NewNotifier(5 * time.Millisecond)
	n.Success("fugaz")

	require.Eventually(t, func() bool { return n.Current() == nil }, time.Second, time.Millisecond)
}
