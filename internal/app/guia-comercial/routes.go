// Package guiacomercial предоставляет маршруты для основного приложения.
package guiacomercial

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/guia-comercial/internal/config"
	"github.com/magabrotheeeer/guia-comercial/internal/gateway"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/admin/listprofiles"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/admin/setplan"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/appdata"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/chat/conversations"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/chat/messages"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/chat/send"
	comerciocreate "github.com/magabrotheeeer/guia-comercial/internal/http/handlers/comercio/create"
	comerciolist "github.com/magabrotheeeer/guia-comercial/internal/http/handlers/comercio/list"
	comercioread "github.com/magabrotheeeer/guia-comercial/internal/http/handlers/comercio/read"
	comercioremove "github.com/magabrotheeeer/guia-comercial/internal/http/handlers/comercio/remove"
	comercioupdate "github.com/magabrotheeeer/guia-comercial/internal/http/handlers/comercio/update"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/payment/preference"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/payment/verify"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/payment/webhook"
	profileread "github.com/magabrotheeeer/guia-comercial/internal/http/handlers/profile/read"
	profileupdate "github.com/magabrotheeeer/guia-comercial/internal/http/handlers/profile/update"
	reviewcreate "github.com/magabrotheeeer/guia-comercial/internal/http/handlers/review/create"
	"github.com/magabrotheeeer/guia-comercial/internal/http/handlers/session"
	"github.com/magabrotheeeer/guia-comercial/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/guia-comercial/internal/services/auth"
	chatservice "github.com/magabrotheeeer/guia-comercial/internal/services/chat"
	comercioservice "github.com/magabrotheeeer/guia-comercial/internal/services/comercio"
	paymentservice "github.com/magabrotheeeer/guia-comercial/internal/services/payment"
	profileservice "github.com/magabrotheeeer/guia-comercial/internal/services/profile"
	referenceservice "github.com/magabrotheeeer/guia-comercial/internal/services/referencedata"
	reviewservice "github.com/magabrotheeeer/guia-comercial/internal/services/review"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	authService *authservice.AuthService,
	profileService *profileservice.ProfileService,
	referenceService *referenceservice.ReferenceDataService,
	comercioService *comercioservice.ComercioService,
	reviewService *reviewservice.ReviewService,
	chatService *chatservice.ChatService,
	paymentService *paymentservice.PaymentService,
	gw *gateway.Gateway,
	events *gateway.EventSource,
	dropArtifact func(accessToken string)) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	comercioReadHandler := comercioread.New(logger, comercioService)
	conversationsHandler := conversations.New(logger, chatService)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Get("/appdata", appdata.New(logger, referenceService).ServeHTTP)
		r.Get("/comercios/{id}", comercioReadHandler.ServeHTTP)
		r.Get("/comercios/slug/{slug}", comercioReadHandler.BySlug)
		r.Post("/session/bootstrap", session.New(logger, gw, events, dropArtifact).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/auth/logout", logout.New(logger, authService).ServeHTTP)
			r.Post("/auth/refresh", refresh.New(logger, authService).ServeHTTP)
			r.Get("/profile", profileread.New(logger, profileService).ServeHTTP)
			r.Patch("/profile", profileupdate.New(logger, profileService).ServeHTTP)
			r.Post("/comercios", comerciocreate.New(logger, comercioService).ServeHTTP)
			r.Put("/comercios/{id}", comercioupdate.New(logger, comercioService).ServeHTTP)
			r.Delete("/comercios/{id}", comercioremove.New(logger, comercioService).ServeHTTP)
			r.Get("/comercios/mine", comerciolist.New(logger, comercioService).ServeHTTP)
			r.Post("/reviews", reviewcreate.New(logger, reviewService).ServeHTTP)
			r.Post("/chat/conversations", conversationsHandler.Open)
			r.Get("/chat/conversations", conversationsHandler.List)
			r.Get("/chat/conversations/{id}/messages", messages.New(logger, chatService).ServeHTTP)
			r.Post("/chat/messages", send.New(logger, chatService).ServeHTTP)
			r.Post("/payments/preference", preference.New(logger, paymentService).ServeHTTP)
			r.Post("/payments/verify", verify.New(logger, paymentService).ServeHTTP)
		})

		// Группа административных конечных точек
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.AdminOnlyMiddleware(logger))
			r.Get("/admin/profiles", listprofiles.New(logger, profileService).ServeHTTP)
			r.Post("/admin/setplan", setplan.New(logger, profileService).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/webhook", webhook.New(logger, paymentService, cfg.MercadoPago.WebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
