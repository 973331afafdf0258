package cron

import (
	"context"
	"fmt"

	"github.com/bali1973/alo17-alerts/pkg/logger"
)

const defaultHistoryCap = 1000

type historyCapper interface {
	CapTo(ctx context.Context, maxCount int) (int64, error)
}

// HistoryCapJobParams configure the send-history cap job.
type HistoryCapJobParams struct {
	Logger     *logger.Logger
	History    historyCapper
	MaxEntries int
}

// NewHistoryCapJob evicts the oldest send-history rows beyond the cap.
func NewHistoryCapJob(params HistoryCapJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history repository required")
	}
	maxEntries := params.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultHistoryCap
	}
	return &historyCapJob{
		logg:       params.Logger,
		history:    params.History,
		maxEntries: maxEntries,
	}, nil
}

type historyCapJob struct {
	logg       *logger.Logger
	history    historyCapper
	maxEntries int
}

func (j *historyCapJob) Name() string { return "history-cap" }

func (j *historyCapJob) Run(ctx context.Context) error {
	evicted, err := j.history.CapTo(ctx, j.maxEntries)
	if err != nil {
		return fmt.Errorf("history cap: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"max_entries":  j.maxEntries,
		"rows_evicted": evicted,
	})
	j.logg.Info(logCtx, "history cap complete")
	return nil
}
