package match

import (
	"encoding/json"
	"strings"
)

// KeywordFilterState distinguishes "no filter" from "corrupt filter" so the
// difference stays observable in logs instead of collapsing silently.
type KeywordFilterState int

const (
	FilterAbsent KeywordFilterState = iota
	FilterPresent
	FilterMalformed
)

// KeywordFilter is the decoded form of a subscription's stored keyword list.
type KeywordFilter struct {
	State    KeywordFilterState
	Keywords []string
}

// DecodeKeywords parses the stored JSON keyword list. A missing or empty
// value is an absent filter; unparseable JSON is malformed and matching
// treats it as absent.
func DecodeKeywords(raw *string) KeywordFilter {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return KeywordFilter{State: FilterAbsent}
	}

	var keywords []string
	if err := json.Unmarshal([]byte(*raw), &keywords); err != nil {
		return KeywordFilter{State: FilterMalformed}
	}

	cleaned := keywords[:0]
	for _, kw := range keywords {
		if trimmed := strings.TrimSpace(kw); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return KeywordFilter{State: FilterAbsent}
	}

	return KeywordFilter{State: FilterPresent, Keywords: cleaned}
}
