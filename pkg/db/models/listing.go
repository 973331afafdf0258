package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bali1973/alo17-alerts/pkg/enums"
)

// Listing is the slice of a classified ad the alert engine consumes.
// Listing lifecycle (creation, moderation, payment) lives elsewhere.
type Listing struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string              `gorm:"type:text;not null" json:"title"`
	Description string              `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal     `gorm:"type:numeric;not null" json:"price"`
	Location    string              `gorm:"type:text;not null" json:"location"`
	Category    string              `gorm:"type:text;not null" json:"category"`
	Subcategory string              `gorm:"type:text" json:"subcategory"`
	Status      enums.ListingStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time           `gorm:"type:timestamptz;default:now()" json:"createdAt"`
}
