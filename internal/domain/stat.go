package domain

import "strings"

// Stat is one decorative summary card. Values are display text and are not
// derived from the record set.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend string `json:"trend"`
}

// TrendUp reports whether the trend renders as positive.
func (s Stat) TrendUp() bool {
	return strings.HasPrefix(strings.TrimSpace(s.Trend), "+")
}
