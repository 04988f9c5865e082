package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/google/uuid"
)

// DefaultTimestampLayout renders creation times like "2/21/2026, 3:04:05 PM".
const DefaultTimestampLayout = "1/2/2006, 3:04:05 PM"

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	SaveLatency     time.Duration
	TimestampLayout string
}

// IDGenerator returns unique identifiers for new change events.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service is the save path behind the grid.
type Service struct {
	repo            Repository
	idGen           IDGenerator
	clock           Clock
	saveLatency     time.Duration
	timestampLayout string

	// mu serializes id assignment and the writes that follow it.
	mu sync.Mutex
}

// NewService constructs a service over repo.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.SaveLatency < 0 {
		cfg.SaveLatency = 0
	}
	if cfg.TimestampLayout == "" {
		cfg.TimestampLayout = DefaultTimestampLayout
	}
	return &Service{
		repo:            repo,
		idGen:           idGen,
		clock:           clock,
		saveLatency:     cfg.SaveLatency,
		timestampLayout: cfg.TimestampLayout,
	}
}

// SaveLatency reports the configured simulated save delay.
func (s *Service) SaveLatency() time.Duration {
	return s.saveLatency
}

// Seed loads the initial payload into an empty repository. Existing records
// are left alone, so a persistent store is only seeded once.
func (s *Service) Seed(ctx context.Context, records []domain.Record, stats []domain.Stat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.ListRecords(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, rec := range records {
			if err := s.repo.CreateRecord(ctx, rec); err != nil {
				return fmt.Errorf("seed record %d: %w", rec.ID, err)
			}
		}
	}

	currentStats, err := s.repo.ListStats(ctx)
	if err != nil {
		return err
	}
	if len(currentStats) == 0 && len(stats) > 0 {
		if err := s.repo.ReplaceStats(ctx, stats); err != nil {
			return fmt.Errorf("seed stats: %w", err)
		}
	}
	return nil
}

// ListRecords returns records in insertion order.
func (s *Service) ListRecords(ctx context.Context) ([]domain.Record, error) {
	return s.repo.ListRecords(ctx)
}

// ListStats returns the stat cards.
func (s *Service) ListStats(ctx context.Context) ([]domain.Stat, error) {
	return s.repo.ListStats(ctx)
}

// ListChangeEvents returns the newest activity entries first.
func (s *Service) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	return s.repo.ListChangeEvents(ctx, limit)
}

// CreateRecordInput holds input values for create record operations.
type CreateRecordInput struct {
	Action     string
	Enrichment domain.Enrichment
}

// CreateRecord validates the draft, waits out the save latency and stores a
// new record under the next id.
func (s *Service) CreateRecord(ctx context.Context, in CreateRecordInput) (domain.Record, error) {
	draft := domain.Draft{Action: in.Action, Enrichment: in.Enrichment}
	if draft.Enrichment.Icon == "" {
		draft.Enrichment.Icon = domain.DefaultIcon
	}
	if err := draft.Validate(); err != nil {
		return domain.Record{}, err
	}
	if err := s.wait(ctx); err != nil {
		return domain.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.repo.NextRecordID(ctx)
	if err != nil {
		return domain.Record{}, fmt.Errorf("next record id: %w", err)
	}
	now := s.clock()
	rec, err := domain.NewRecord(domain.RecordInput{
		ID:         id,
		Timestamp:  now.Format(s.timestampLayout),
		Action:     draft.Action,
		Enrichment: draft.Enrichment,
	})
	if err != nil {
		return domain.Record{}, err
	}
	summary := fmt.Sprintf("created %s %s: %s", rec.Enrichment.Icon, rec.Enrichment.Name, rec.Status)
	event, err := s.newChangeEvent(rec.ID, domain.ChangeOperationCreate, summary, now)
	if err != nil {
		return domain.Record{}, err
	}
	if err := s.repo.CreateRecord(ctx, rec, event); err != nil {
		return domain.Record{}, fmt.Errorf("store record %d: %w", rec.ID, err)
	}
	return rec, nil
}

// DeleteRecords removes records by id and returns how many were deleted. Any
// unknown id fails the whole call before anything is removed.
func (s *Service) DeleteRecords(ctx context.Context, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return 0, err
	}
	byID := make(map[int]domain.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			return 0, fmt.Errorf("record %d: %w", id, ErrNotFound)
		}
	}

	now := s.clock()
	events := make([]domain.ChangeEvent, 0, len(unique))
	for _, id := range unique {
		rec := byID[id]
		summary := fmt.Sprintf("deleted %s %s", rec.Enrichment.Icon, rec.Enrichment.Name)
		event, err := s.newChangeEvent(id, domain.ChangeOperationDelete, summary, now)
		if err != nil {
			return 0, err
		}
		events = append(events, event)
	}
	if err := s.repo.DeleteRecords(ctx, unique, events...); err != nil {
		return 0, err
	}
	return len(unique), nil
}

func (s *Service) newChangeEvent(recordID int, op domain.ChangeOperation, summary string, now time.Time) (domain.ChangeEvent, error) {
	return domain.NewChangeEvent(s.idGen(), recordID, op, summary, now)
}

func (s *Service) wait(ctx context.Context) error {
	if s.saveLatency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.saveLatency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
