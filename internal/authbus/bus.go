// Package authbus реализует внутрипроцессную шину событий аутентификации.
// Сервис аутентификации публикует события, подписчики получают их
// синхронно в порядке подписки.
package authbus

import (
	"sort"
	"sync"
)

// Типы событий аутентификации.
const (
	EventSignedIn       = "signed_in"
	EventSignedOut      = "signed_out"
	EventTokenRefreshed = "token_refreshed"
)

// Event событие аутентификации вместе с данными сессии на момент публикации.
type Event struct {
	Type        string
	UserUID     string
	Email       string
	AccessToken string
}

// Handler получает события шины.
type Handler func(Event)

// Bus рассылает события аутентификации подписчикам.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// New создаёт пустую шину.
func New() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe регистрирует обработчик и возвращает функцию отписки.
// Функцию отписки можно вызывать многократно.
func (b *Bus) Subscribe(handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish синхронно доставляет событие всем подписчикам.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
