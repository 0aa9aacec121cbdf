package webflow

import "sync/atomic"

// Coordinator владеет всеми одноразовыми защёлками и флагами сценария
// загрузки. Любой вопрос "кому сейчас можно грузить профиль" решается
// здесь явным методом, а не разрозненными булевыми переменными.
type Coordinator struct {
	paymentClaimed  atomic.Bool
	bootstrapped    atomic.Bool
	profileLoadBusy atomic.Bool
	verifying       atomic.Bool
	initializing    atomic.Bool
	escapeRevealed  atomic.Bool
}

// NewCoordinator создает новый экземпляр Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// TryClaimPaymentReturn захватывает обработку возврата с оплаты.
// Возвращает true ровно один раз за загрузку страницы.
func (c *Coordinator) TryClaimPaymentReturn() bool {
	return c.paymentClaimed.CompareAndSwap(false, true)
}

// PaymentClaimed сообщает, что текущая загрузка — возврат с оплаты.
func (c *Coordinator) PaymentClaimed() bool {
	return c.paymentClaimed.Load()
}

// TryClaimBootstrap захватывает запуск последовательности загрузки.
// Повторный вызов (строгий двойной запуск) возвращает false.
func (c *Coordinator) TryClaimBootstrap() bool {
	return c.bootstrapped.CompareAndSwap(false, true)
}

// TryClaimProfileLoad захватывает право на загрузку профиля.
func (c *Coordinator) TryClaimProfileLoad() bool {
	return c.profileLoadBusy.CompareAndSwap(false, true)
}

// ReleaseProfileLoad освобождает загрузку профиля.
func (c *Coordinator) ReleaseProfileLoad() {
	c.profileLoadBusy.Store(false)
}

// SetVerifying включает или выключает блокирующий экран проверки платежа.
func (c *Coordinator) SetVerifying(v bool) {
	c.verifying.Store(v)
}

// Verifying сообщает, идёт ли блокирующая проверка платежа.
func (c *Coordinator) Verifying() bool {
	return c.verifying.Load()
}

// SetInitializing включает или выключает верхнеуровневый индикатор загрузки.
func (c *Coordinator) SetInitializing(v bool) {
	c.initializing.Store(v)
}

// Initializing сообщает, показывается ли индикатор загрузки.
func (c *Coordinator) Initializing() bool {
	return c.initializing.Load()
}

// RevealEscape открывает ручной выход из блокирующей проверки.
// Сам запрос проверки при этом не отменяется.
func (c *Coordinator) RevealEscape() {
	c.escapeRevealed.Store(true)
}

// HideEscape скрывает ручной выход.
func (c *Coordinator) HideEscape() {
	c.escapeRevealed.Store(false)
}

// EscapeRevealed сообщает, доступен ли ручной выход.
func (c *Coordinator) EscapeRevealed() bool {
	return c.escapeRevealed.Load()
}
