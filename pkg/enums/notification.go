package enums

import "fmt"

// Frequency controls which dispatch path handles a subscription.
type Frequency string

const (
	FrequencyInstant Frequency = "instant"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
)

var validFrequencies = []Frequency{
	FrequencyInstant,
	FrequencyDaily,
	FrequencyWeekly,
}

// IsValid checks whether the given frequency matches the canonical enum.
func (f Frequency) IsValid() bool {
	for _, candidate := range validFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFrequency converts raw strings into Frequency.
func ParseFrequency(value string) (Frequency, error) {
	for _, candidate := range validFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid frequency %q", value)
}

// NotificationType categorizes in-app notifications.
type NotificationType string

const (
	NotificationTypeNewListing NotificationType = "new_listing"
	NotificationTypeSystem     NotificationType = "system"
)

// Channel identifies the transport a history entry was recorded for.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// SendStatus records the best-effort outcome of a channel send.
type SendStatus string

const (
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)
