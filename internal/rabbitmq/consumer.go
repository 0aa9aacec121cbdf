package rabbitmq

import (
	"context"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// ConsumeQueue читает очередь уведомлений и передаёт тело каждого
// сообщения обработчику. Обработчики выполняются в отдельных
// горутинах, их число ограничено prefetchLimit; при ошибке сообщение
// возвращается в очередь для повторной доставки. Чтение останавливается
// по отмене контекста.
func ConsumeQueue(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumeQueue"
	delivery, err := ch.Consume(
		queueName,
		"guia-sender."+queueName,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to consume queue %s: %w", op, queueName, err)
	}

	workers := make(chan struct{}, prefetchLimit)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				workers <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-workers }()
					if err := handler(delivery.Body); err != nil {
						if nackErr := delivery.Nack(false, true); nackErr != nil {
							log.Printf("failed to requeue message from %s: %v", queueName, nackErr)
						}
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Printf("failed to ack message from %s: %v", queueName, ackErr)
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
