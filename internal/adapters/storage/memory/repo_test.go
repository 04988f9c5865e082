package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/evanschultz/enrichgrid/internal/app"
	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/evanschultz/enrichgrid/internal/sample"
)

var _ app.Repository = (*Repository)(nil)

func seeded(t *testing.T) *Repository {
	t.Helper()
	repo := New()
	for _, rec := range sample.Records() {
		if err := repo.CreateRecord(context.Background(), rec); err != nil {
			t.Fatalf("CreateRecord() error = %v", err)
		}
	}
	return repo
}

func TestRepository_RecordsAndSequence(t *testing.T) {
	ctx := context.Background()
	repo := New()
	if next, _ := repo.NextRecordID(ctx); next != 1 {
		t.Fatalf("expected first id 1, got %d", next)
	}

	repo = seeded(t)
	if next, _ := repo.NextRecordID(ctx); next != 6 {
		t.Fatalf("expected next id 6, got %d", next)
	}
	if err := repo.CreateRecord(ctx, sample.Records()[0]); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
	if err := repo.CreateRecord(ctx, domain.Record{}); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	records, _ := repo.ListRecords(ctx)
	records[0].Action = "mutated"
	again, _ := repo.ListRecords(ctx)
	if again[0].Action == "mutated" {
		t.Fatal("ListRecords must return a copy")
	}
}

func TestRepository_DeleteRecords(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t)

	if err := repo.DeleteRecords(ctx, []int{5}); err != nil {
		t.Fatalf("DeleteRecords() error = %v", err)
	}
	if next, _ := repo.NextRecordID(ctx); next != 6 {
		t.Fatalf("expected high-water mark to survive delete, got %d", next)
	}
	if err := repo.DeleteRecords(ctx, []int{1, 5}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	records, _ := repo.ListRecords(ctx)
	if len(records) != 4 {
		t.Fatalf("expected failed delete to keep records, got %d", len(records))
	}
}

func TestRepository_StatsAndEvents(t *testing.T) {
	ctx := context.Background()
	repo := New()
	if err := repo.ReplaceStats(ctx, sample.Stats()); err != nil {
		t.Fatalf("ReplaceStats() error = %v", err)
	}
	stats, _ := repo.ListStats(ctx)
	if len(stats) != 4 {
		t.Fatalf("expected 4 stats, got %d", len(stats))
	}

	records := sample.Records()
	for i, id := range []string{"a", "b", "c"} {
		event := domain.ChangeEvent{ID: id, RecordID: records[i].ID}
		if err := repo.CreateRecord(ctx, records[i], event); err != nil {
			t.Fatalf("CreateRecord() error = %v", err)
		}
	}
	events, _ := repo.ListChangeEvents(ctx, 2)
	if len(events) != 2 || events[0].ID != "c" || events[1].ID != "b" {
		t.Fatalf("expected newest first with limit, got %#v", events)
	}
	if events[0].OccurredAt.IsZero() {
		t.Fatal("expected occurred_at to be filled")
	}
}

func TestRepository_InvalidEventStoresNothing(t *testing.T) {
	ctx := context.Background()
	repo := seeded(t)
	rec := sample.Records()[0]
	rec.ID = 6

	if err := repo.CreateRecord(ctx, rec, domain.ChangeEvent{RecordID: 6}); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := repo.DeleteRecords(ctx, []int{1}, domain.ChangeEvent{RecordID: 1}); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	records, _ := repo.ListRecords(ctx)
	events, _ := repo.ListChangeEvents(ctx, 0)
	if len(records) != 5 || len(events) != 0 {
		t.Fatalf("expected no partial writes, got %d records %d events", len(records), len(events))
	}
	if next, _ := repo.NextRecordID(ctx); next != 6 {
		t.Fatalf("expected sequence untouched, got %d", next)
	}
}

func TestRepository_HonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ListRecords(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRepository_ConcurrentServiceSaves(t *testing.T) {
	repo := seeded(t)
	svc := app.NewService(repo, nil, nil, app.ServiceConfig{SaveLatency: time.Millisecond})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreateRecord(context.Background(), app.CreateRecordInput{
				Action:     "parallel",
				Enrichment: domain.Enrichment{Name: "p"},
			}); err != nil {
				t.Errorf("CreateRecord() error = %v", err)
			}
		}()
	}
	wg.Wait()

	records, _ := repo.ListRecords(context.Background())
	if len(records) != 13 {
		t.Fatalf("expected 13 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.ID != i+1 {
			t.Fatalf("expected contiguous ids, got %d at %d", rec.ID, i)
		}
	}
}
