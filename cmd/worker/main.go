package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	consumer "github.com/bali1973/alo17-alerts/internal/consumers/listings"
	"github.com/bali1973/alo17-alerts/internal/dispatch"
	"github.com/bali1973/alo17-alerts/internal/history"
	"github.com/bali1973/alo17-alerts/internal/listings"
	"github.com/bali1973/alo17-alerts/internal/notifications"
	"github.com/bali1973/alo17-alerts/internal/subscriptions"
	"github.com/bali1973/alo17-alerts/pkg/config"
	"github.com/bali1973/alo17-alerts/pkg/db"
	"github.com/bali1973/alo17-alerts/pkg/events"
	"github.com/bali1973/alo17-alerts/pkg/logger"
	"github.com/bali1973/alo17-alerts/pkg/mailer"
	"github.com/bali1973/alo17-alerts/pkg/metrics"
	"github.com/bali1973/alo17-alerts/pkg/migrate"
	"github.com/bali1973/alo17-alerts/pkg/push"
	"github.com/bali1973/alo17-alerts/pkg/pubsub"
	"github.com/bali1973/alo17-alerts/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	subscriptionsRepo := subscriptions.NewRepository(dbClient.DB())
	listingsRepo := listings.NewRepository(dbClient.DB())
	historyRepo := history.NewRepository(dbClient.DB())

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

	dispatchService, err := dispatch.NewService(dispatch.Params{
		Subscriptions:  subscriptionsRepo,
		Notifications:  notificationsService,
		History:        historyRepo,
		Mailer:         sesMailer,
		Pusher:         pusher,
		Logger:         logg,
		Metrics:        metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		SiteBaseURL:    cfg.Site.BaseURL,
		ChannelTimeout: cfg.Notify.ChannelTimeout,
		MaxHistory:     cfg.Notify.MaxHistory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	idempotencyManager, err := events.NewIdempotencyManager(redisClient, cfg.Eventing.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	listingConsumer, err := consumer.NewConsumer(listingsRepo, dispatchService, pubsubClient.ListingSubscription(), idempotencyManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create listing consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		PubSub:          pubsubClient,
		ListingConsumer: listingConsumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
