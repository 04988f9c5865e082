package domain

import "strings"

// Status is the badge shown for a record.
type Status string

const (
	StatusError    Status = "Error"
	StatusLoading  Status = "Loading"
	StatusComplete Status = "Complete"
)

// DeriveStatus maps action text to a status. Matching is case-sensitive and
// checked in order: "exceeds" wins over "Loading", everything else is complete.
func DeriveStatus(action string) Status {
	switch {
	case strings.Contains(action, "exceeds"):
		return StatusError
	case strings.Contains(action, "Loading"):
		return StatusLoading
	default:
		return StatusComplete
	}
}
