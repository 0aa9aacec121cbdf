package models

import "time"

// Plan представляет тариф подписки для владельцев комерсов.
type Plan struct {
	ID                  string  `json:"id"`                   // Идентификатор плана, например "free", "destacado", "premium"
	Nombre              string  `json:"nombre"`               // Название плана
	Precio              float64 `json:"precio"`               // Цена за месяц
	LimiteImagenes      int     `json:"limite_imagenes"`      // Максимум изображений в публикации
	LimitePublicaciones int     `json:"limite_publicaciones"` // Максимум публикаций у пользователя
	TienePrioridad      bool    `json:"tiene_prioridad"`      // Приоритет в выдаче каталога
	TieneChat           bool    `json:"tiene_chat"`           // Доступен ли чат с клиентами
}

// SubscriptionHistoryEntry представляет запись истории активаций планов.
type SubscriptionHistoryEntry struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	PlanID    string    `json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Amount    float64   `json:"amount"`
	PaymentID string    `json:"payment_id"` // Идентификатор платежа у провайдера, пустой для ручных активаций
	Status    string    `json:"status"`     // active, expired или manual
	CreatedAt time.Time `json:"created_at"`
}

// Статусы записей истории подписок.
const (
	HistoryStatusActive  = "active"
	HistoryStatusExpired = "expired"
	HistoryStatusManual  = "manual"
)

// FreePlanID идентификатор бесплатного плана, на который откатываются
// истекшие подписки.
const FreePlanID = "free"

// DummySetPlan используется администратором для ручной смены плана пользователя.
type DummySetPlan struct {
	UserUID    string `json:"user_uid" validate:"required,uuid"`
	PlanID     string `json:"plan_id" validate:"required"`
	DaysActive int    `json:"days_active" validate:"required,gt=0"`
}
