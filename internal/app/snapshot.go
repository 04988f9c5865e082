package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/evanschultz/enrichgrid/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = 1

// Snapshot is the portable JSON form of a grid.
type Snapshot struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Records    []domain.Record `json:"records"`
	Stats      []domain.Stat   `json:"stats"`
}

// ExportSnapshot captures every record and stat card.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	stats, err := s.repo.ListStats(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Records:    append(make([]domain.Record, 0, len(records)), records...),
		Stats:      append(make([]domain.Stat, 0, len(stats)), stats...),
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot adds snapshot records whose ids are not stored yet and
// replaces the stat cards when the snapshot carries any. It returns the number
// of records added.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) (int, error) {
	if err := snap.Validate(); err != nil {
		return 0, err
	}
	snap.sort()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.ListRecords(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[int]struct{}, len(existing))
	for _, rec := range existing {
		known[rec.ID] = struct{}{}
	}

	now := s.clock()
	imported := 0
	for _, rec := range snap.Records {
		if _, ok := known[rec.ID]; ok {
			continue
		}
		event, err := s.newChangeEvent(rec.ID, domain.ChangeOperationCreate, "imported "+string(rec.Enrichment.Icon)+" "+rec.Enrichment.Name, now)
		if err != nil {
			return imported, err
		}
		if err := s.repo.CreateRecord(ctx, rec, event); err != nil {
			return imported, fmt.Errorf("import record %d: %w", rec.ID, err)
		}
		imported++
	}
	if len(snap.Stats) > 0 {
		if err := s.repo.ReplaceStats(ctx, snap.Stats); err != nil {
			return imported, fmt.Errorf("import stats: %w", err)
		}
	}
	return imported, nil
}

// Validate checks version and rebuilds every record so its status matches its
// action text.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}
	seen := map[int]struct{}{}
	for i, rec := range s.Records {
		normalized, err := domain.NewRecord(domain.RecordInput{
			ID:         rec.ID,
			Timestamp:  rec.Timestamp,
			Action:     rec.Action,
			Enrichment: rec.Enrichment,
		})
		if err != nil {
			return fmt.Errorf("%w: records[%d]: %w", ErrInvalidSnapshot, i, err)
		}
		if _, dup := seen[rec.ID]; dup {
			return fmt.Errorf("%w: duplicate record id %d", ErrInvalidSnapshot, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		s.Records[i] = normalized
	}
	for i, stat := range s.Stats {
		if stat.Label == "" {
			return fmt.Errorf("%w: stats[%d].label is required", ErrInvalidSnapshot, i)
		}
	}
	return nil
}

func (s *Snapshot) sort() {
	slices.SortStableFunc(s.Records, func(a, b domain.Record) int {
		return a.ID - b.ID
	})
}
