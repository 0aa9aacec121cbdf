package guiacomercial

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/guia-comercial/internal/authbus"
	"github.com/magabrotheeeer/guia-comercial/internal/cache"
	"github.com/magabrotheeeer/guia-comercial/internal/config"
	"github.com/magabrotheeeer/guia-comercial/internal/gateway"
	"github.com/magabrotheeeer/guia-comercial/internal/lib/jwt"
	"github.com/magabrotheeeer/guia-comercial/internal/migrations"
	"github.com/magabrotheeeer/guia-comercial/internal/paymentprovider"
	"github.com/magabrotheeeer/guia-comercial/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/guia-comercial/internal/services/auth"
	chatservice "github.com/magabrotheeeer/guia-comercial/internal/services/chat"
	comercioservice "github.com/magabrotheeeer/guia-comercial/internal/services/comercio"
	paymentservice "github.com/magabrotheeeer/guia-comercial/internal/services/payment"
	profileservice "github.com/magabrotheeeer/guia-comercial/internal/services/profile"
	referenceservice "github.com/magabrotheeeer/guia-comercial/internal/services/referencedata"
	reviewservice "github.com/magabrotheeeer/guia-comercial/internal/services/review"
	"github.com/magabrotheeeer/guia-comercial/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	bus := authbus.New()
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker, cacheRedis, bus, cfg.TokenTTL, logger)
	referenceService := referenceservice.NewReferenceDataService(db, cacheRedis, logger)
	profileService := profileservice.NewProfileService(db, db, db, cacheRedis, logger)
	comercioService := comercioservice.NewComercioService(db, db, db, referenceService, logger)
	reviewService := reviewservice.NewReviewService(db, db, referenceService, logger)
	chatService := chatservice.NewChatService(db, db, db, db, rabbitmq.NewPublisher(ch), logger)

	providerClient := paymentprovider.NewClient(cfg.MercadoPago.AccessToken)
	paymentService := paymentservice.NewPaymentService(providerClient, db, db, profileService, cfg.SiteURL, logger)

	gw := gateway.New(authService, profileService, paymentService, referenceService, logger)
	events := gateway.NewEventSource(bus, authService)

	// При очистке клиентского хранилища сессии удаляется и её
	// серверная запись.
	var dropper gateway.SessionDropper = authService
	dropArtifact := func(accessToken string) {
		if err := dropper.Logout(context.Background(), accessToken); err != nil {
			logger.Warn("failed to drop session record", slog.Any("err", err))
		}
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg,
		authService, profileService, referenceService, comercioService,
		reviewService, chatService, paymentService,
		gw, events, dropArtifact)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		_ = a.db.DB.Close()
		return err
	}
}
