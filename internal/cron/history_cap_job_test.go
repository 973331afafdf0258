package cron

import (
	"context"
	"errors"
	"testing"
)

type fakeCapper struct {
	lastMax int
	evicted int64
	err     error
}

func (f *fakeCapper) CapTo(ctx context.Context, maxCount int) (int64, error) {
	f.lastMax = maxCount
	return f.evicted, f.err
}

func TestHistoryCapJobUsesConfiguredCap(t *testing.T) {
	capper := &fakeCapper{evicted: 12}
	job, err := NewHistoryCapJob(HistoryCapJobParams{
		Logger:     testCronLogger(),
		History:    capper,
		MaxEntries: 500,
	})
	if err != nil {
		t.Fatalf("NewHistoryCapJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if capper.lastMax != 500 {
		t.Fatalf("expected cap 500, got %d", capper.lastMax)
	}
}

func TestHistoryCapJobDefaultsCap(t *testing.T) {
	capper := &fakeCapper{}
	job, err := NewHistoryCapJob(HistoryCapJobParams{
		Logger:  testCronLogger(),
		History: capper,
	})
	if err != nil {
		t.Fatalf("NewHistoryCapJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if capper.lastMax != defaultHistoryCap {
		t.Fatalf("expected default cap %d, got %d", defaultHistoryCap, capper.lastMax)
	}
}

func TestHistoryCapJobPropagatesErrors(t *testing.T) {
	job, err := NewHistoryCapJob(HistoryCapJobParams{
		Logger:  testCronLogger(),
		History: &fakeCapper{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewHistoryCapJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
