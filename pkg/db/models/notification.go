package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bali1973/alo17-alerts/pkg/enums"
)

// Notification stores in-app notification payloads for subscribers.
// Rows expire after a fixed retention window and the table is capped,
// evicting oldest first.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID             `gorm:"type:uuid" json:"userId,omitempty"`
	Email     string                 `gorm:"type:text;not null" json:"email"`
	Type      enums.NotificationType `gorm:"type:text;not null" json:"type"`
	Title     string                 `gorm:"type:text;not null" json:"title"`
	Message   string                 `gorm:"type:text;not null" json:"message"`
	Data      string                 `gorm:"type:text" json:"data,omitempty"`
	IsRead    bool                   `gorm:"not null;default:false" json:"isRead"`
	CreatedAt time.Time              `gorm:"type:timestamptz;default:now()" json:"createdAt"`
	ExpiresAt time.Time              `gorm:"type:timestamptz;not null" json:"expiresAt"`
}
