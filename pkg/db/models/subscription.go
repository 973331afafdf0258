package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bali1973/alo17-alerts/pkg/enums"
)

// Subscription is a saved-search alert. Filter fields are optional; a
// subscription with no filters matches every approved listing.
type Subscription struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email       string     `gorm:"type:text;not null" json:"email"`
	UserID      *uuid.UUID `gorm:"type:uuid" json:"userId,omitempty"`
	Category    *string    `gorm:"type:text" json:"category,omitempty"`
	Subcategory *string    `gorm:"type:text" json:"subcategory,omitempty"`
	// Keywords holds a JSON array of case-insensitive substrings. Kept as
	// stored text so a corrupt value degrades to "no keyword filter" at
	// match time instead of failing row scans.
	Keywords     *string          `gorm:"type:text" json:"keywords,omitempty"`
	PriceMin     *decimal.Decimal `gorm:"type:numeric" json:"priceMin,omitempty"`
	PriceMax     *decimal.Decimal `gorm:"type:numeric" json:"priceMax,omitempty"`
	Location     *string          `gorm:"type:text" json:"location,omitempty"`
	Frequency    enums.Frequency  `gorm:"type:text;not null;default:'instant'" json:"frequency"`
	EmailEnabled bool             `gorm:"not null;default:true" json:"emailEnabled"`
	PushEnabled  bool             `gorm:"not null;default:true" json:"pushEnabled"`
	PushToken    *string          `gorm:"type:text" json:"pushToken,omitempty"`
	IsActive     bool             `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time        `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
