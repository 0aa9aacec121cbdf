package rabbitmq

// NotificationsExchange имя direct-обмена, через который гид рассылает
// уведомления продавцам: пуш-дайджесты и письма о сроке действия плана.
const NotificationsExchange = "guia.notifications"

// Маршрутные ключи обмена уведомлений.
const (
	RoutingKeyPush         = "push"
	RoutingKeyPlanExpiring = "plan.expiring"
	RoutingKeyPlanExpired  = "plan.expired"
)

// QueueConfig связывает очередь с маршрутным ключом обмена.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди уведомлений гида: по одной
// на каждый тип письма, которые читает процесс sender.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.push", RoutingKey: RoutingKeyPush},
		{QueueName: "notification.plan_expiring", RoutingKey: RoutingKeyPlanExpiring},
		{QueueName: "notification.plan_expired", RoutingKey: RoutingKeyPlanExpired},
	}
}
