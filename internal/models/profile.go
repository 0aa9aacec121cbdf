// Package models содержит доменные структуры каталога комерсов:
// профили, сессии, комерсы, планы подписки, чаты и платежи,
// а также вспомогательные Dummy-типы для приёма данных из JSON-запросов.
package models

import "time"

// Profile представляет зарегистрированного пользователя (владельца комерса или клиента).
type Profile struct {
	UID           string     `json:"uid"`             // Уникальный идентификатор пользователя
	Email         string     `json:"email"`           // Электронная почта (уникальная)
	Nombre        string     `json:"nombre"`          // Отображаемое имя
	Telefono      string     `json:"telefono"`        // Контактный телефон
	PasswordHash  string     `json:"-"`               // Хэш пароля, наружу не отдается
	IsAdmin       bool       `json:"is_admin"`        // Признак администратора
	PlanID        string     `json:"plan_id"`         // Текущий план подписки
	PlanExpiresAt *time.Time `json:"plan_expires_at"` // Дата окончания оплаченного плана, nil для бесплатного
}

// Session представляет живую аутентифицированную сессию пользователя.
type Session struct {
	AccessToken string    `json:"access_token"` // JWT токен доступа
	UserUID     string    `json:"user_uid"`     // Идентификатор пользователя
	Email       string    `json:"email"`        // Электронная почта пользователя
	IsAdmin     bool      `json:"is_admin"`     // Признак администратора
	ExpiresAt   time.Time `json:"expires_at"`   // Время истечения токена
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`
	Nombre   string `json:"nombre" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyProfilePatch используется для частичного обновления профиля.
// Пустые поля не изменяются.
type DummyProfilePatch struct {
	Nombre   string `json:"nombre"`
	Telefono string `json:"telefono"`
}
