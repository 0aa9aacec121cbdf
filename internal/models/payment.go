package models

import "time"

// PaymentStatus статус платежа из закрытого словаря провайдера.
// Приходит в query-параметрах при возврате с платёжной страницы
// и в ответах API провайдера.
type PaymentStatus string

// Закрытый словарь статусов платежа.
const (
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusInProcess PaymentStatus = "in_process"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusFailure   PaymentStatus = "failure"
	PaymentStatusNull      PaymentStatus = "null" // Провайдер буквально присылает строку "null"
)

// Approved сообщает, означает ли статус успешную оплату.
func (s PaymentStatus) Approved() bool {
	return s == PaymentStatusApproved || s == PaymentStatusSuccess
}

// PendingLike сообщает, означает ли статус отложенное зачисление.
func (s PaymentStatus) PendingLike() bool {
	return s == PaymentStatusPending || s == PaymentStatusInProcess
}

// RejectedLike сообщает, означает ли статус отказ или отмену.
func (s PaymentStatus) RejectedLike() bool {
	return s == PaymentStatusRejected || s == PaymentStatusFailure || s == PaymentStatusNull
}

// VerificationResult результат серверной проверки платежа.
type VerificationResult struct {
	Success   bool      `json:"success"`
	PlanID    string    `json:"plan_id,omitempty"`
	UserUID   string    `json:"user_uid,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Notification одноразовое UI-сообщение; в каждый момент показывается
// не более одного.
type Notification struct {
	Text string `json:"text"`
	Kind string `json:"kind"` // success или error
}

// Типы уведомлений.
const (
	NotificationSuccess = "success"
	NotificationError   = "error"
)

// DummyPreference используется для создания платёжной преференции.
type DummyPreference struct {
	PlanID string `json:"plan_id" validate:"required"`
	Origin string `json:"origin"` // Базовый URL для back_urls, по умолчанию site_url из конфига
}

// DummyVerify используется для запроса проверки платежа.
type DummyVerify struct {
	PaymentID string `json:"payment_id" validate:"required"`
}
