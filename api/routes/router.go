package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bali1973/alo17-alerts/api/controllers"
	"github.com/bali1973/alo17-alerts/api/middleware"
	"github.com/bali1973/alo17-alerts/internal/digest"
	"github.com/bali1973/alo17-alerts/internal/dispatch"
	"github.com/bali1973/alo17-alerts/internal/listings"
	"github.com/bali1973/alo17-alerts/internal/notifications"
	"github.com/bali1973/alo17-alerts/internal/subscriptions"
	"github.com/bali1973/alo17-alerts/pkg/config"
	"github.com/bali1973/alo17-alerts/pkg/db"
	"github.com/bali1973/alo17-alerts/pkg/logger"
	"github.com/bali1973/alo17-alerts/pkg/redis"
)

// RouterParams bundle everything the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         redis.Pinger
	Subscriptions subscriptions.Service
	Notifications notifications.Service
	Listings      listings.Repository
	Dispatch      dispatch.Service
	Digest        digest.Service
}

// NewRouter wires the public API, the admin surface, and the health probes.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", controllers.CreateSubscription(params.Subscriptions, logg))
			r.Get("/", controllers.ListSubscriptions(params.Subscriptions, logg))
			r.Delete("/{subscriptionId}", controllers.DeleteSubscription(params.Subscriptions, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(params.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(params.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminToken(logg, cfg.Admin.APIToken))
		r.Post("/notify", controllers.AdminNotifyListing(params.Listings, params.Dispatch, logg))
		r.Route("/digests", func(r chi.Router) {
			r.Post("/daily", controllers.AdminSendDailyDigest(params.Digest, logg))
			r.Post("/weekly", controllers.AdminSendWeeklyDigest(params.Digest, logg))
		})
	})

	return r
}
