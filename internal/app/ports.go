package app

import (
	"context"

	"github.com/evanschultz/enrichgrid/internal/domain"
)

// Repository persists records, stat cards and the activity ledger.
type Repository interface {
	ListRecords(context.Context) ([]domain.Record, error)
	// NextRecordID returns one more than the highest id ever stored, so ids
	// freed by a delete are never handed out again.
	NextRecordID(context.Context) (int, error)
	// CreateRecord and DeleteRecords write the records and their change
	// events atomically: on error nothing is stored.
	CreateRecord(context.Context, domain.Record, ...domain.ChangeEvent) error
	DeleteRecords(context.Context, []int, ...domain.ChangeEvent) error

	ListStats(context.Context) ([]domain.Stat, error)
	ReplaceStats(context.Context, []domain.Stat) error

	// ListChangeEvents returns newest events first; limit <= 0 means all.
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
}
