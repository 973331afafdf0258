// Package history keeps the append-only audit log of outbound sends.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bali1973/alo17-alerts/pkg/db/models"
)

// Repository exposes persistence helpers for the send audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.HistoryEntry) error
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit int) ([]models.HistoryEntry, error)
	CapTo(ctx context.Context, maxCount int) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Append(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID, limit int) ([]models.HistoryEntry, error) {
	query := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("sent_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.HistoryEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CapTo evicts oldest entries first until at most maxCount remain.
func (r *repositoryImpl) CapTo(ctx context.Context, maxCount int) (int64, error) {
	if maxCount <= 0 {
		return 0, nil
	}

	keep := r.db.Model(&models.HistoryEntry{}).
		Select("id").
		Order("sent_at DESC, id DESC").
		Limit(maxCount)

	result := r.db.WithContext(ctx).
		Where("id NOT IN (?)", keep).
		Delete(&models.HistoryEntry{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
