package webflow

import (
	"sync"
	"time"

	"github.com/magabrotheeeer/guia-comercial/internal/models"
)

// DefaultNotificationTTL время показа уведомления до автоскрытия.
const DefaultNotificationTTL = 6 * time.Second

// Notifier держит очередь из одного уведомления: новое вытесняет
// предыдущее, показ снимается по таймеру или вручную.
type Notifier struct {
	mu      sync.Mutex
	current *models.Notification
	timer   *time.Timer
	ttl     time.Duration
}

// NewNotifier создает новый экземпляр Notifier.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Notifier{ttl: ttl}
}

// Success показывает уведомление об успехе.
func (n *Notifier) Success(text string) {
	n.show(text, models.NotificationSuccess)
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(text string) {
	n.show(text, models.NotificationError)
}

func (n *Notifier) show(text, kind string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.current = &models.Notification{Text: text, Kind: kind}
	n.timer = time.AfterFunc(n.ttl, n.Dismiss)
}

// Current возвращает активное уведомление или nil.
func (n *Notifier) Current() *models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Dismiss снимает активное уведомление.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = nil
}
