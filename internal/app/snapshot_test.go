package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/evanschultz/enrichgrid/internal/domain"
)

func TestSnapshotExportImportRoundTrip(t *testing.T) {
	src := newTestService(t, newFakeRepo())
	if _, err := src.CreateRecord(context.Background(), CreateRecordInput{
		Action:     "https://example.com/report",
		Enrichment: domain.Enrichment{Name: "Report", Icon: domain.IconGreen},
	}); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}

	snap, err := src.ExportSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Version != SnapshotVersion || len(snap.Records) != 6 || len(snap.Stats) != 4 {
		t.Fatalf("unexpected snapshot %#v", snap)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	dstRepo := newFakeRepo()
	dst := NewService(dstRepo, nil, nil, ServiceConfig{})
	imported, err := dst.ImportSnapshot(context.Background(), decoded)
	if err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	if imported != 6 {
		t.Fatalf("expected 6 imported, got %d", imported)
	}
	if len(dstRepo.stats) != 4 {
		t.Fatalf("expected stats to import, got %d", len(dstRepo.stats))
	}
	if dstRepo.records[5].Action != "https://example.com/report" {
		t.Fatalf("unexpected imported record %#v", dstRepo.records[5])
	}

	again, err := dst.ImportSnapshot(context.Background(), decoded)
	if err != nil {
		t.Fatalf("second ImportSnapshot() error = %v", err)
	}
	if again != 0 {
		t.Fatalf("expected existing ids to be skipped, got %d", again)
	}

	next, err := dst.CreateRecord(context.Background(), CreateRecordInput{
		Action:     "x",
		Enrichment: domain.Enrichment{Name: "y"},
	})
	if err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	if next.ID != 7 {
		t.Fatalf("expected id after imported rows, got %d", next.ID)
	}
}

func TestSnapshotValidateRederivesStatus(t *testing.T) {
	snap := Snapshot{
		Version: SnapshotVersion,
		Records: []domain.Record{{
			ID:         3,
			Timestamp:  "now",
			Action:     "Loading data...",
			Enrichment: domain.Enrichment{Name: "n", Icon: domain.IconWhite},
			Status:     domain.StatusComplete,
		}},
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if snap.Records[0].Status != domain.StatusLoading {
		t.Fatalf("expected status to be derived, got %q", snap.Records[0].Status)
	}
}

func TestSnapshotValidateRejectsBadInput(t *testing.T) {
	valid := domain.Record{ID: 1, Timestamp: "t", Action: "a", Enrichment: domain.Enrichment{Name: "n", Icon: domain.IconBlue}}
	cases := []struct {
		name string
		snap Snapshot
		want error
	}{
		{name: "version", snap: Snapshot{Version: 2}, want: ErrInvalidSnapshot},
		{name: "duplicate", snap: Snapshot{Version: 1, Records: []domain.Record{valid, valid}}, want: ErrInvalidSnapshot},
		{name: "bad icon", snap: Snapshot{Version: 1, Records: []domain.Record{{ID: 1, Timestamp: "t", Action: "a", Enrichment: domain.Enrichment{Name: "n", Icon: "x"}}}}, want: domain.ErrInvalidIcon},
		{name: "bad id", snap: Snapshot{Version: 1, Records: []domain.Record{{ID: 0, Timestamp: "t", Action: "a", Enrichment: domain.Enrichment{Name: "n"}}}}, want: domain.ErrInvalidID},
		{name: "stat label", snap: Snapshot{Version: 1, Stats: []domain.Stat{{Value: "1"}}}, want: ErrInvalidSnapshot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.snap.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
