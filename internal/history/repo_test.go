package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bali1973/alo17-alerts/pkg/db/models"
	"github.com/bali1973/alo17-alerts/pkg/enums"
)

func setupHistoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notification_history (
  id TEXT PRIMARY KEY,
  subscription_id TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  email TEXT NOT NULL,
  subject TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  channel TEXT NOT NULL,
  status TEXT NOT NULL,
  sent_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM notification_history")
	})
	return db
}

func seedEntry(t *testing.T, repo Repository, subscriptionID uuid.UUID, sentAt time.Time) *models.HistoryEntry {
	t.Helper()
	entry := &models.HistoryEntry{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		ListingID:      uuid.New(),
		Email:          "a@x.com",
		Subject:        "Yeni İlan: test",
		Channel:        enums.ChannelEmail,
		Status:         enums.SendStatusSent,
		SentAt:         sentAt,
	}
	require.NoError(t, repo.Append(context.Background(), entry))
	return entry
}

func TestRepository_AppendAndList(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	subID := uuid.New()
	now := time.Now().UTC()
	older := seedEntry(t, repo, subID, now.Add(-time.Hour))
	newer := seedEntry(t, repo, subID, now)
	seedEntry(t, repo, uuid.New(), now) // other subscription

	entries, err := repo.ListBySubscription(ctx, subID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer.ID, entries[0].ID)
	assert.Equal(t, older.ID, entries[1].ID)
}

func TestRepository_CapToEvictsOldestFirst(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	subID := uuid.New()
	now := time.Now().UTC()
	oldest := seedEntry(t, repo, subID, now.Add(-3*time.Hour))
	middle := seedEntry(t, repo, subID, now.Add(-time.Hour))
	newest := seedEntry(t, repo, subID, now)

	evicted, err := repo.CapTo(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, evicted)

	entries, err := repo.ListBySubscription(ctx, subID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newest.ID, entries[0].ID)
	assert.Equal(t, middle.ID, entries[1].ID)
	for _, entry := range entries {
		assert.NotEqual(t, oldest.ID, entry.ID)
	}
}

func TestRepository_CapToZeroIsNoop(t *testing.T) {
	db := setupHistoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedEntry(t, repo, uuid.New(), time.Now().UTC())

	evicted, err := repo.CapTo(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, evicted)
}
