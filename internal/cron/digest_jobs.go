package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/bali1973/alo17-alerts/internal/digest"
	"github.com/bali1973/alo17-alerts/pkg/logger"
)

type digestSender interface {
	SendDailyDigest(ctx context.Context) (digest.Result, error)
	SendWeeklyDigest(ctx context.Context) (digest.Result, error)
}

// DigestJobParams configure the digest jobs.
type DigestJobParams struct {
	Logger *logger.Logger
	Digest digestSender
}

// NewDailyDigestJob sends the daily consolidated listing emails.
func NewDailyDigestJob(params DigestJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Digest == nil {
		return nil, fmt.Errorf("digest service required")
	}
	return &dailyDigestJob{logg: params.Logger, digest: params.Digest}, nil
}

type dailyDigestJob struct {
	logg   *logger.Logger
	digest digestSender
}

func (j *dailyDigestJob) Name() string { return "daily-digest" }

func (j *dailyDigestJob) Run(ctx context.Context) error {
	result, err := j.digest.SendDailyDigest(ctx)
	if err != nil {
		return fmt.Errorf("daily digest: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"subscriptions": result.Subscriptions,
		"emails_sent":   result.EmailsSent,
	})
	j.logg.Info(logCtx, "daily digest complete")
	return nil
}

// NewWeeklyDigestJob sends the weekly consolidated listing emails. The cron
// loop ticks daily, so the job itself gates on Mondays.
func NewWeeklyDigestJob(params DigestJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Digest == nil {
		return nil, fmt.Errorf("digest service required")
	}
	return &weeklyDigestJob{
		logg:   params.Logger,
		digest: params.Digest,
		now:    time.Now,
	}, nil
}

type weeklyDigestJob struct {
	logg   *logger.Logger
	digest digestSender
	now    func() time.Time
}

func (j *weeklyDigestJob) Name() string { return "weekly-digest" }

func (j *weeklyDigestJob) Run(ctx context.Context) error {
	if j.now().UTC().Weekday() != time.Monday {
		j.logg.Info(ctx, "weekly digest only runs on Mondays; skipping")
		return nil
	}
	result, err := j.digest.SendWeeklyDigest(ctx)
	if err != nil {
		return fmt.Errorf("weekly digest: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"subscriptions": result.Subscriptions,
		"emails_sent":   result.EmailsSent,
	})
	j.logg.Info(logCtx, "weekly digest complete")
	return nil
}
