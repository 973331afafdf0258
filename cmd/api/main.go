package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bali1973/alo17-alerts/api/routes"
	"github.com/bali1973/alo17-alerts/internal/digest"
	"github.com/bali1973/alo17-alerts/internal/dispatch"
	"github.com/bali1973/alo17-alerts/internal/history"
	"github.com/bali1973/alo17-alerts/internal/listings"
	"github.com/bali1973/alo17-alerts/internal/notifications"
	"github.com/bali1973/alo17-alerts/internal/subscriptions"
	"github.com/bali1973/alo17-alerts/pkg/config"
	"github.com/bali1973/alo17-alerts/pkg/db"
	"github.com/bali1973/alo17-alerts/pkg/logger"
	"github.com/bali1973/alo17-alerts/pkg/mailer"
	"github.com/bali1973/alo17-alerts/pkg/metrics"
	"github.com/bali1973/alo17-alerts/pkg/migrate"
	"github.com/bali1973/alo17-alerts/pkg/push"
	"github.com/bali1973/alo17-alerts/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	subscriptionsRepo := subscriptions.NewRepository(dbClient.DB())
	subscriptionsService, err := subscriptions.NewService(subscriptionsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.Params{
		Repo:        notifications.NewRepository(dbClient.DB()),
		Logger:      logg,
		Retention:   time.Duration(cfg.Notify.RetentionDays) * 24 * time.Hour,
		MaxRetained: cfg.Notify.MaxNotifications,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	listingsRepo := listings.NewRepository(dbClient.DB())
	historyRepo := history.NewRepository(dbClient.DB())

	sesMailer, err := mailer.NewSESMailer(context.Background(), cfg.SES, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create SES mailer", err)
		os.Exit(1)
	}

	var pusher dispatch.Pusher
	if fcmClient, err := push.NewFCMClient(context.Background(), cfg.FCM, logg); err != nil {
		logg.Warn(context.Background(), "push channel disabled: "+err.Error())
	} else {
		pusher = fcmClient
	}

	dispatchMetrics := metrics.NewDispatchMetrics(prometheus.DefaultRegisterer)

	dispatchService, err := dispatch.NewService(dispatch.Params{
		Subscriptions:  subscriptionsRepo,
		Notifications:  notificationsService,
		History:        historyRepo,
		Mailer:         sesMailer,
		Pusher:         pusher,
		Logger:         logg,
		Metrics:        dispatchMetrics,
		SiteBaseURL:    cfg.Site.BaseURL,
		ChannelTimeout: cfg.Notify.ChannelTimeout,
		MaxHistory:     cfg.Notify.MaxHistory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	digestService, err := digest.NewService(digest.Params{
		Subscriptions:  subscriptionsRepo,
		Listings:       listingsRepo,
		Mailer:         sesMailer,
		Logger:         logg,
		Metrics:        dispatchMetrics,
		SiteBaseURL:    cfg.Site.BaseURL,
		ChannelTimeout: cfg.Notify.ChannelTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create digest service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Subscriptions: subscriptionsService,
			Notifications: notificationsService,
			Listings:      listingsRepo,
			Dispatch:      dispatchService,
			Digest:        digestService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
