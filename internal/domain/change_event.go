package domain

import (
	"strings"
	"time"
)

// ChangeOperation describes a persisted activity operation for a record.
type ChangeOperation string

// ChangeOperation values used by the local activity ledger.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationDelete ChangeOperation = "delete"
)

// ChangeEvent represents a single activity-log entry for a record.
type ChangeEvent struct {
	ID         string
	RecordID   int
	Operation  ChangeOperation
	Summary    string
	OccurredAt time.Time
}

// NewChangeEvent constructs a change event with a normalized timestamp.
func NewChangeEvent(id string, recordID int, op ChangeOperation, summary string, now time.Time) (ChangeEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" || recordID <= 0 {
		return ChangeEvent{}, ErrInvalidID
	}
	return ChangeEvent{
		ID:         id,
		RecordID:   recordID,
		Operation:  op,
		Summary:    strings.TrimSpace(summary),
		OccurredAt: now.UTC(),
	}, nil
}
