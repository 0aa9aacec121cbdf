package webflow

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/lib/sl"
	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// DefaultSafetyTimeout время до показа ручного выхода из блокирующей
// проверки платежа.
const DefaultSafetyTimeout = 15 * time.Second

// paymentParams параметры, которые провайдер добавляет к URL возврата.
// Все они вычищаются из адреса сразу при обнаружении.
var paymentParams = []string{
	"payment_id",
	"status",
	"collection_status",
	"payment_type",
	"merchant_order_id",
	"preference_id",
}

// ReturnDescriptor описывает один возврат с оплаты, извлечённый из URL.
type ReturnDescriptor struct {
	PaymentID string
	Status    models.PaymentStatus
	CleanURL  string
}

// Reconciler разбирает возврат с внешней оплаты и доводит его до
// определённого исхода: уведомления, проверки платежа и перехода.
type Reconciler struct {
	gateway       Gateway
	store         *SessionStore
	coord         *Coordinator
	notifier      *Notifier
	navigate      func(View)
	log           *slog.Logger
	safetyTimeout time.Duration
}

// NewReconciler создает новый экземпляр Reconciler.
func NewReconciler(gateway Gateway, store *SessionStore, coord *Coordinator,
	notifier *Notifier, navigate func(View), log *slog.Logger) *Reconciler {
	return &Reconciler{
		gateway:       gateway,
		store:         store,
		coord:         coord,
		notifier:      notifier,
		navigate:      navigate,
		log:           log,
		safetyTimeout: DefaultSafetyTimeout,
	}
}

// Detect синхронно проверяет, является ли загрузка страницы возвратом
// с оплаты. При первом обнаружении захватывает защёлку и возвращает
// дескриптор с уже очищенным URL — всё до единого асинхронного вызова,
// чтобы повторный рендер или перезагрузка не запустили обработку дважды.
func (r *Reconciler) Detect(pageURL string) (*ReturnDescriptor, bool) {
	const op = "webflow.Reconciler.Detect"

	u, err := url.Parse(pageURL)
	if err != nil {
		r.log.Warn("failed to parse page url", slog.String("op", op), sl.Err(err))
		return nil, false
	}

	query := u.Query()
	paymentID := query.Get("payment_id")
	status := query.Get("status")
	if status == "" {
		status = query.Get("collection_status")
	}
	if paymentID == "" && status == "" {
		return nil, false
	}

	if !r.coord.TryClaimPaymentReturn() {
		return nil, false
	}

	for _, p := range paymentParams {
		query.Del(p)
	}
	u.RawQuery = query.Encode()

	return &ReturnDescriptor{
		PaymentID: paymentID,
		Status:    models.PaymentStatus(status),
		CleanURL:  u.String(),
	}, true
}

// Resolve классифицирует возврат и выполняет выбранный путь:
// отказ и ожидание завершаются уведомлением и переходом, одобренный
// платеж уходит в блокирующую проверку.
func (r *Reconciler) Resolve(ctx context.Context, ret *ReturnDescriptor) {
	switch {
	case ret.Status.RejectedLike():
		r.notifier.Error("El pago no se completó o fue cancelado.")
		r.settle(ctx, ViewPricing)
	case ret.Status.PendingLike():
		r.notifier.Success("Pago pendiente. Se activará al acreditarse.")
		r.settle(ctx, ViewDashboard)
	case ret.Status.Approved():
		if ret.PaymentID == "" {
			r.notifier.Error("No recibimos el identificador del pago. Si el cobro se realizó, contactanos.")
			r.settle(ctx, ViewPricing)
			return
		}
		r.verify(ctx, ret.PaymentID)
	default:
		r.notifier.Error("No pudimos determinar el estado del pago.")
		r.settle(ctx, ViewPricing)
	}
}

// settle завершает возврат, не дошедший до проверки платежа: с сессией
// ведёт на целевое представление, без неё — на вход. На возврате с
// оплаты профилем владеет Reconciler, поэтому перед панелью он сам
// освежает профиль.
func (r *Reconciler) settle(ctx context.Context, target View) {
	session := r.store.Session()
	if session == nil {
		r.navigate(ViewAuth)
		return
	}
	if target == ViewDashboard {
		r.refreshProfile(ctx, session.UserUID)
	}
	r.navigate(target)
}

// verify выполняет блокирующую проверку платежа. Таймер безопасности
// открывает ручной выход, не отменяя сам запрос; флаги и таймер
// снимаются в defer при любом исходе, чтобы экран не завис.
func (r *Reconciler) verify(ctx context.Context, paymentID string) {
	const op = "webflow.Reconciler.verify"

	r.coord.SetVerifying(true)
	safety := time.AfterFunc(r.safetyTimeout, r.coord.RevealEscape)
	defer func() {
		safety.Stop()
		r.coord.SetVerifying(false)
		r.coord.HideEscape()
	}()

	result, err := r.gateway.InvokeVerification(ctx, paymentID)
	session := r.store.Session()

	if err != nil || !result.Success {
		reason := "el pago no fue aprobado"
		if err != nil {
			r.log.Error("verification call failed", slog.String("op", op), sl.Err(err))
			reason = "error de conexión"
		} else if result.Error != "" {
			reason = result.Error
		}
		r.notifier.Error("No pudimos verificar el pago: " + reason)

		// Платеж мог пройти на сервере частично, профиль освежаем.
		if session != nil {
			r.refreshProfile(ctx, session.UserUID)
			r.navigate(ViewDashboard)
		} else {
			r.navigate(ViewPricing)
		}
		return
	}

	if session == nil {
		// Сессия могла истечь, пока пользователь платил на стороне
		// провайдера. План уже активирован, просим войти снова.
		r.notifier.Success("¡Plan activado! Iniciá sesión para verlo en tu panel.")
		r.navigate(ViewAuth)
		return
	}

	r.refreshProfile(ctx, session.UserUID)
	r.notifier.Success("¡Plan activado correctamente!")
	r.navigate(ViewDashboard)
}

func (r *Reconciler) refreshProfile(ctx context.Context, userUID string) {
	loadProfile(ctx, r.gateway, r.store, r.coord, r.log, userUID)
}
