package domain

import (
	"slices"
	"strings"
)

// Icon is one of the fixed enrichment markers.
type Icon string

const (
	IconBlue   Icon = "🔵"
	IconYellow Icon = "🟡"
	IconWhite  Icon = "⚪"
	IconGreen  Icon = "🟢"
	IconRed    Icon = "🔴"
)

// DefaultIcon is the icon a fresh draft starts with.
const DefaultIcon = IconBlue

var validIcons = []Icon{IconBlue, IconYellow, IconWhite, IconGreen, IconRed}

// Icons returns the picker order.
func Icons() []Icon {
	return slices.Clone(validIcons)
}

// ParseIcon validates raw icon text.
func ParseIcon(raw string) (Icon, error) {
	icon := Icon(strings.TrimSpace(raw))
	if !slices.Contains(validIcons, icon) {
		return "", ErrInvalidIcon
	}
	return icon, nil
}

// IconIndex returns the picker position of icon, or -1.
func IconIndex(icon Icon) int {
	return slices.Index(validIcons, icon)
}

type Enrichment struct {
	Name string `json:"name"`
	Icon Icon   `json:"icon"`
}

// Record is one row of the grid.
type Record struct {
	ID         int        `json:"id"`
	Timestamp  string     `json:"timestamp"`
	Action     string     `json:"action"`
	Enrichment Enrichment `json:"enrichment"`
	Status     Status     `json:"status"`
}

type RecordInput struct {
	ID         int
	Timestamp  string
	Action     string
	Enrichment Enrichment
}

// NewRecord validates input and derives the record status from its action
// text. Action and enrichment name are stored as typed.
func NewRecord(in RecordInput) (Record, error) {
	in.Timestamp = strings.TrimSpace(in.Timestamp)

	if in.ID <= 0 {
		return Record{}, ErrInvalidID
	}
	if in.Timestamp == "" {
		return Record{}, ErrInvalidTimestamp
	}
	if strings.TrimSpace(in.Action) == "" {
		return Record{}, ErrInvalidAction
	}
	if strings.TrimSpace(in.Enrichment.Name) == "" {
		return Record{}, ErrInvalidEnrichmentName
	}
	if in.Enrichment.Icon == "" {
		in.Enrichment.Icon = DefaultIcon
	}
	icon, err := ParseIcon(string(in.Enrichment.Icon))
	if err != nil {
		return Record{}, err
	}
	in.Enrichment.Icon = icon

	return Record{
		ID:         in.ID,
		Timestamp:  in.Timestamp,
		Action:     in.Action,
		Enrichment: in.Enrichment,
		Status:     DeriveStatus(in.Action),
	}, nil
}

// IsLink reports whether the action renders as a hyperlink.
func (r Record) IsLink() bool {
	return strings.HasPrefix(r.Action, "http")
}
