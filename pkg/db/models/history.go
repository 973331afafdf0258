package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bali1973/alo17-alerts/pkg/enums"
)

// HistoryEntry is an append-only audit record of one outbound send.
type HistoryEntry struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubscriptionID uuid.UUID        `gorm:"type:uuid;not null" json:"subscriptionId"`
	ListingID      uuid.UUID        `gorm:"type:uuid;not null" json:"listingId"`
	Email          string           `gorm:"type:text;not null" json:"email"`
	Subject        string           `gorm:"type:text;not null" json:"subject"`
	Content        string           `gorm:"type:text" json:"content"`
	Channel        enums.Channel    `gorm:"type:text;not null" json:"channel"`
	Status         enums.SendStatus `gorm:"type:text;not null" json:"status"`
	SentAt         time.Time        `gorm:"type:timestamptz;default:now()" json:"sentAt"`
}

// TableName keeps the audit log under its historical name.
func (HistoryEntry) TableName() string { return "notification_history" }
