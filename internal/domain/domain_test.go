package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name   string
		action string
		want   Status
	}{
		{name: "exceeds is error", action: "Cell data size exceeds limit", want: StatusError},
		{name: "loading", action: "Loading data, Please wait", want: StatusLoading},
		{name: "plain text completes", action: "Bitscale Evaluation - Account relevancy", want: StatusComplete},
		{name: "link completes", action: "https://www.linkedin.com/bitS...", want: StatusComplete},
		{name: "exceeds beats loading", action: "Loading failed: payload exceeds limit", want: StatusError},
		{name: "case sensitive loading", action: "loading data", want: StatusComplete},
		{name: "case sensitive exceeds", action: "EXCEEDS quota", want: StatusComplete},
		{name: "empty", action: "", want: StatusComplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.action); got != tc.want {
				t.Fatalf("DeriveStatus(%q) = %q, want %q", tc.action, got, tc.want)
			}
		})
	}
}

func TestNewRecordDerivesStatusAndDefaultsIcon(t *testing.T) {
	rec, err := NewRecord(RecordInput{
		ID:         7,
		Timestamp:  " Oct 12, 2024 at 14:08 PM ",
		Action:     " Cell data size exceeds limit",
		Enrichment: Enrichment{Name: "  BMW Evaluation  "},
	})
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}
	if rec.Status != StatusError {
		t.Fatalf("expected derived error status, got %q", rec.Status)
	}
	if rec.Enrichment.Icon != DefaultIcon {
		t.Fatalf("expected default icon, got %q", rec.Enrichment.Icon)
	}
	if rec.Timestamp != "Oct 12, 2024 at 14:08 PM" {
		t.Fatalf("expected trimmed timestamp, got %q", rec.Timestamp)
	}
	if rec.Enrichment.Name != "  BMW Evaluation  " || rec.Action != " Cell data size exceeds limit" {
		t.Fatalf("expected action and name stored as typed, got %#v", rec)
	}
}

func TestNewRecordValidation(t *testing.T) {
	valid := RecordInput{ID: 1, Timestamp: "now", Action: "a", Enrichment: Enrichment{Name: "n", Icon: IconRed}}
	cases := []struct {
		name   string
		mutate func(*RecordInput)
		want   error
	}{
		{name: "zero id", mutate: func(in *RecordInput) { in.ID = 0 }, want: ErrInvalidID},
		{name: "blank timestamp", mutate: func(in *RecordInput) { in.Timestamp = " " }, want: ErrInvalidTimestamp},
		{name: "blank action", mutate: func(in *RecordInput) { in.Action = "  " }, want: ErrInvalidAction},
		{name: "blank name", mutate: func(in *RecordInput) { in.Enrichment.Name = "" }, want: ErrInvalidEnrichmentName},
		{name: "unknown icon", mutate: func(in *RecordInput) { in.Enrichment.Icon = "x" }, want: ErrInvalidIcon},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			if _, err := NewRecord(in); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRecordIsLink(t *testing.T) {
	if !(Record{Action: "https://example.com"}).IsLink() {
		t.Fatal("expected http action to render as a link")
	}
	if (Record{Action: "see https://example.com"}).IsLink() {
		t.Fatal("expected prefix-only link detection")
	}
}

func TestParseIconAndOrder(t *testing.T) {
	icons := Icons()
	if len(icons) != 5 || icons[0] != IconBlue || icons[4] != IconRed {
		t.Fatalf("unexpected icon order %#v", icons)
	}
	icons[0] = "mutated"
	if Icons()[0] != IconBlue {
		t.Fatal("expected Icons() to return a copy")
	}
	if got, err := ParseIcon(" 🟢 "); err != nil || got != IconGreen {
		t.Fatalf("ParseIcon() = %q, %v", got, err)
	}
	if _, err := ParseIcon("⭐"); err != ErrInvalidIcon {
		t.Fatalf("expected ErrInvalidIcon, got %v", err)
	}
}

func TestDraftValidate(t *testing.T) {
	if err := (Draft{Action: "a", Enrichment: Enrichment{Name: "n", Icon: IconBlue}}).Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}

	err := EmptyDraft(DefaultIcon).Validate()
	if err == nil {
		t.Fatal("expected empty draft to fail validation")
	}
	if !errors.Is(err, ErrInvalidAction) || !errors.Is(err, ErrInvalidEnrichmentName) {
		t.Fatalf("expected both field errors, got %v", err)
	}
	if errors.Is(err, ErrInvalidIcon) {
		t.Fatalf("expected default icon to be valid, got %v", err)
	}
	fields := FieldErrors(err)
	if len(fields) != 2 || fields[DraftFieldAction] == "" || fields[DraftFieldEnrichmentName] == "" {
		t.Fatalf("unexpected field errors %#v", fields)
	}
	if !strings.HasPrefix(err.Error(), "invalid draft: action:") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
	if FieldErrors(errors.New("other")) != nil {
		t.Fatal("expected nil field errors for non-validation error")
	}
}

func TestEmptyDraftFallsBackToDefaultIcon(t *testing.T) {
	if got := EmptyDraft("nope").Enrichment.Icon; got != DefaultIcon {
		t.Fatalf("expected default icon, got %q", got)
	}
	if got := EmptyDraft(IconYellow).Enrichment.Icon; got != IconYellow {
		t.Fatalf("expected configured icon, got %q", got)
	}
}

func TestStatTrendUp(t *testing.T) {
	if !(Stat{Trend: "+12%"}).TrendUp() {
		t.Fatal("expected + trend to be up")
	}
	if (Stat{Trend: "-5%"}).TrendUp() {
		t.Fatal("expected - trend to be down")
	}
}

func TestNewChangeEvent(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.FixedZone("x", 3600))
	ev, err := NewChangeEvent("e1", 3, ChangeOperationCreate, " created ", now)
	if err != nil {
		t.Fatalf("NewChangeEvent() error = %v", err)
	}
	if ev.OccurredAt.Location() != time.UTC || ev.Summary != "created" {
		t.Fatalf("unexpected event %#v", ev)
	}
	if _, err := NewChangeEvent("", 3, ChangeOperationCreate, "", now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewChangeEvent("e2", 0, ChangeOperationCreate, "", now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
