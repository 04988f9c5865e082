// Package memory keeps grid state in process memory. Every new repository
// starts empty, so each launch reseeds the sample payload.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/evanschultz/enrichgrid/internal/app"
	"github.com/evanschultz/enrichgrid/internal/domain"
)

// Repository is a mutex-guarded in-memory store.
type Repository struct {
	mu        sync.RWMutex
	records   []domain.Record
	highWater int
	stats     []domain.Stat
	events    []domain.ChangeEvent
}

// New returns an empty repository.
func New() *Repository {
	return &Repository{}
}

func (r *Repository) ListRecords(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records), nil
}

// NextRecordID returns one past the highest id ever stored.
func (r *Repository) NextRecordID(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.highWater + 1, nil
}

// CreateRecord stores rec together with its change events. Nothing is kept
// when any part is invalid.
func (r *Repository) CreateRecord(ctx context.Context, rec domain.Record, events ...domain.ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID <= 0 {
		return domain.ErrInvalidID
	}
	events, err := normalizeEvents(events)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(rec.ID) >= 0 {
		return fmt.Errorf("insert record %d: id already exists", rec.ID)
	}
	r.records = append(r.records, rec)
	slices.SortStableFunc(r.records, func(a, b domain.Record) int { return a.ID - b.ID })
	r.highWater = max(r.highWater, rec.ID)
	r.events = append(r.events, events...)
	return nil
}

// DeleteRecords removes all ids and appends their change events, or does
// nothing.
func (r *Repository) DeleteRecords(ctx context.Context, ids []int, events ...domain.ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	events, err := normalizeEvents(events)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if r.indexOf(id) < 0 {
			return fmt.Errorf("delete record %d: %w", id, app.ErrNotFound)
		}
	}
	r.records = slices.DeleteFunc(r.records, func(rec domain.Record) bool {
		return slices.Contains(ids, rec.ID)
	})
	r.events = append(r.events, events...)
	return nil
}

func (r *Repository) ListStats(ctx context.Context) ([]domain.Stat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.stats), nil
}

func (r *Repository) ReplaceStats(ctx context.Context, stats []domain.Stat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = slices.Clone(stats)
	return nil
}

func normalizeEvents(events []domain.ChangeEvent) ([]domain.ChangeEvent, error) {
	out := make([]domain.ChangeEvent, 0, len(events))
	for _, event := range events {
		if event.ID == "" {
			return nil, domain.ErrInvalidID
		}
		if event.OccurredAt.IsZero() {
			event.OccurredAt = time.Now().UTC()
		}
		out = append(out, event)
	}
	return out, nil
}

// ListChangeEvents returns newest events first.
func (r *Repository) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.events)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) indexOf(id int) int {
	return slices.IndexFunc(r.records, func(rec domain.Record) bool { return rec.ID == id })
}
