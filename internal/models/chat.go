package models

import "time"

// Conversation представляет переписку клиента с комерсом.
type Conversation struct {
	ID              string    `json:"id"`
	ComercioID      string    `json:"comercio_id"`
	ClienteUID      string    `json:"cliente_uid"`
	LastMessage     string    `json:"last_message"`
	UpdatedAt       time.Time `json:"updated_at"`
	ParticipantUIDs []string  `json:"participant_uids"` // [cliente_uid, владелец комерса]

	// Агрегаты для списка переписок.
	UnreadCount      int    `json:"unread_count"`
	OtherPartyNombre string `json:"other_party_nombre,omitempty"`
}

// Message представляет одно сообщение внутри переписки.
type Message struct {
	ID             int       `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderUID      string    `json:"sender_uid"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// DummyMessage используется для приёма сообщения из JSON-запроса.
type DummyMessage struct {
	ConversationID string `json:"conversation_id" validate:"required,uuid"`
	Content        string `json:"content" validate:"required,max=2000"`
}

// PushJob описывает задание на push-уведомление, публикуемое в очередь
// при новом сообщении. Emails получателей разрешаются на стороне
// издателя, чтобы воркер не ходил в базу.
type PushJob struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	URL      string   `json:"url"`
	UserUIDs []string `json:"user_uids"`
	Emails   []string `json:"emails"`
}
