package cron

import (
	"context"
	"fmt"

	"github.com/bali1973/alo17-alerts/internal/notifications"
	"github.com/bali1973/alo17-alerts/pkg/logger"
)

type notificationCleaner interface {
	Cleanup(ctx context.Context) (notifications.CleanupResult, error)
}

// NotificationCleanupJobParams configure the in-app notification cleanup job.
type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Notifications notificationCleaner
}

// NewNotificationCleanupJob prunes expired in-app notifications and enforces
// the retained-count cap.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	return &notificationCleanupJob{
		logg:   params.Logger,
		notifs: params.Notifications,
	}, nil
}

type notificationCleanupJob struct {
	logg   *logger.Logger
	notifs notificationCleaner
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	result, err := j.notifs.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_pruned":  result.Pruned,
		"rows_evicted": result.Evicted,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}
