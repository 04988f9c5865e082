// Package sample provides the fixed payload the grid starts from on every fresh load.
package sample

import "github.com/evanschultz/enrichgrid/internal/domain"

const seedTimestamp = "Oct 12, 2024 at 14:08 PM"

var initialRows = []domain.RecordInput{
	{
		ID:         1,
		Timestamp:  seedTimestamp,
		Action:     "Bitscale Evaluation - Account relevancy",
		Enrichment: domain.Enrichment{Name: "Bitscale Evaluation - Account relevancy", Icon: domain.IconBlue},
	},
	{
		ID:         2,
		Timestamp:  seedTimestamp,
		Action:     "Cell data size exceeds limit",
		Enrichment: domain.Enrichment{Name: "BMW Evaluation - Relevancy check", Icon: domain.IconBlue},
	},
	{
		ID:         3,
		Timestamp:  seedTimestamp,
		Action:     "https://www.linkedin.com/bitS...",
		Enrichment: domain.Enrichment{Name: "Google Evaluation - Lilevancy", Icon: domain.IconBlue},
	},
	{
		ID:         4,
		Timestamp:  seedTimestamp,
		Action:     "Loading data, Please wait",
		Enrichment: domain.Enrichment{Name: "Apple Evaluation - Olvancy check", Icon: domain.IconYellow},
	},
	{
		ID:         5,
		Timestamp:  seedTimestamp,
		Action:     "Loading data, Please wait",
		Enrichment: domain.Enrichment{Name: "Figma Evaluation - Evancy check", Icon: domain.IconWhite},
	},
}

var statsData = []domain.Stat{
	{Label: "Total Records", Value: "1,234", Trend: "+12%"},
	{Label: "Processing", Value: "56", Trend: "-5%"},
	{Label: "Completed", Value: "1,178", Trend: "+15%"},
	{Label: "Failed", Value: "12", Trend: "-2%"},
}

// Records returns a fresh copy of the initial rows.
func Records() []domain.Record {
	out := make([]domain.Record, 0, len(initialRows))
	for _, in := range initialRows {
		rec, err := domain.NewRecord(in)
		if err != nil {
			// The payload is static; a failure here is a programming error.
			panic("sample: invalid seed row: " + err.Error())
		}
		out = append(out, rec)
	}
	return out
}

// Stats returns a fresh copy of the summary statistics.
func Stats() []domain.Stat {
	return append([]domain.Stat(nil), statsData...)
}
