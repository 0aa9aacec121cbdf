package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/guia-comercial/internal/config"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/smtp"
	"github.com/magabrotheeeer/guia-comercial/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/guia-comercial/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	newTransport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(logger, newTransport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumeQueue(ctx, a.ch, "notification.push", a.senderService.SendPushDigest)
	if err != nil {
		a.logger.Error("failed to start notification.push consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.ConsumeQueue(ctx, a.ch, "notification.plan_expiring", a.senderService.SendInfoPlanExpiringTomorrow)
	if err != nil {
		a.logger.Error("failed to start notification.plan_expiring consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.ConsumeQueue(ctx, a.ch, "notification.plan_expired", a.senderService.SendInfoPlanExpired)
	if err != nil {
		a.logger.Error("failed to start notification.plan_expired consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
