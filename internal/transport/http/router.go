package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-rental-api/internal/config"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/transport/http/handler"
	appmiddleware "github.com/go-rental-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background cleanup of the rate limiter.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps, svcs *Services) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	optionalAuthMw := appmiddleware.OptionalAuth(deps.JWTProvider)

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	catalogH := handler.NewCatalogHandler(cfg.WeeklyPrice, cfg.MonthlyPrice, cfg.Currency)
	sessionH := handler.NewSessionHandler(svcs.Users)
	userH := handler.NewUserHandler(svcs.Users)
	propertyH := handler.NewPropertyHandler(svcs.Properties)
	adminH := handler.NewAdminHandler(svcs.Properties, deps.Jobs)
	paymentH := handler.NewPaymentHandler(svcs.Payments)
	favoriteH := handler.NewFavoriteHandler(svcs.Favorites)
	reviewH := handler.NewReviewHandler(svcs.Reviews)
	conversationH := handler.NewConversationHandler(svcs.Messaging)
	notifH := handler.NewNotificationHandler(svcs.Notifications)
	dashboardH := handler.NewDashboardHandler(svcs.Dashboard)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/catalog", catalogH.Get)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)

		r.Get("/properties", propertyH.List)
		r.Get("/properties/featured", propertyH.Featured)
		r.Get("/properties/search", propertyH.Search)
		r.Get("/properties/{id}/images", propertyH.ListImages)
		r.Get("/properties/{id}/reviews", reviewH.List)
		r.With(optionalAuthMw).Get("/properties/{id}", propertyH.Detail)

		// Gateway redirect and webhook.
		r.With(sensitiveRL.Limit).Get("/payments/callback", paymentH.CallbackRedirect)
		r.With(sensitiveRL.Limit).Post("/payments/callback", paymentH.Webhook)
		r.Get("/payments/return", paymentH.Return)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateProfile)
			r.Post("/users/me/password", userH.ChangePassword)
			r.Post("/users/me/picture", userH.UploadPicture)
			r.Get("/users/{id}", userH.Get)

			r.Post("/properties", propertyH.Create)
			r.Get("/properties/mine", propertyH.Mine)
			r.Put("/properties/{id}", propertyH.Update)
			r.Delete("/properties/{id}", propertyH.Delete)
			r.Post("/properties/{id}/images", propertyH.AddImages)
			r.Delete("/properties/{id}/images/{imageID}", propertyH.DeleteImage)
			r.Post("/properties/{id}/upgrade", paymentH.Upgrade)
			r.Get("/properties/{id}/payments", paymentH.History)
			r.Post("/properties/{id}/favorite", favoriteH.Toggle)
			r.Post("/properties/{id}/reviews", reviewH.Create)
			r.Post("/properties/{id}/conversations", conversationH.Start)

			r.Get("/favorites", favoriteH.List)
			r.Post("/reviews/{id}/replies", reviewH.Reply)

			r.Get("/conversations", conversationH.List)
			r.Get("/conversations/unread", conversationH.Unread)
			r.Get("/conversations/{id}", conversationH.Thread)
			r.Get("/conversations/{id}/new", conversationH.HasNew)
			r.Post("/conversations/{id}/messages", conversationH.Send)
			r.Put("/conversations/{id}/read", conversationH.MarkRead)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread", notifH.ListUnread)
			r.Put("/notifications", notifH.MarkAllAsRead)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			r.Get("/dashboard", dashboardH.Get)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/admin/properties/pending", adminH.Queue)
				r.Post("/admin/properties/{id}/verify", adminH.Verify)
				r.Post("/admin/properties/{id}/reject", adminH.Reject)
				r.Get("/admin/jobs", adminH.ListJobs)
				r.Post("/admin/jobs/{job}", adminH.RunJob)
			})
		})
	})

	return r
}
