package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeListingApproved marks a listing passing moderation.
const EventTypeListingApproved = "listing.approved"

// PayloadEnvelope is the stable payload structure carried on the listing
// events topic.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// ListingApproved is the data payload of a listing.approved event.
type ListingApproved struct {
	ListingID   uuid.UUID       `json:"listingId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Location    string          `json:"location"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	CreatedAt   time.Time       `json:"createdAt"`
}
