package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bali1973/alo17-alerts/internal/cron"
	"github.com/bali1973/alo17-alerts/internal/digest"
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
	"github.com/bali1973/alo17-alerts/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	dispatchMetrics := metrics.NewDispatchMetrics(prometheus.DefaultRegisterer)

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

	cleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:        logg,
		Notifications: notificationsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cleanup job", err)
		os.Exit(1)
	}

	historyCapJob, err := cron.NewHistoryCapJob(cron.HistoryCapJobParams{
		Logger:     logg,
		History:    historyRepo,
		MaxEntries: cfg.Notify.MaxHistory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create history cap job", err)
		os.Exit(1)
	}

	dailyDigestJob, err := cron.NewDailyDigestJob(cron.DigestJobParams{Logger: logg, Digest: digestService})
	if err != nil {
		logg.Error(context.Background(), "failed to create daily digest job", err)
		os.Exit(1)
	}

	weeklyDigestJob, err := cron.NewWeeklyDigestJob(cron.DigestJobParams{Logger: logg, Digest: digestService})
	if err != nil {
		logg.Error(context.Background(), "failed to create weekly digest job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(dailyDigestJob, weeklyDigestJob, cleanupJob, historyCapJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Eventing.CronInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}
