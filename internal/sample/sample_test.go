package sample

import (
	"testing"

	"github.com/evanschultz/enrichgrid/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsMatchSeedPayload(t *testing.T) {
	rows := Records()
	require.Len(t, rows, 5)

	wantStatus := []domain.Status{
		domain.StatusComplete,
		domain.StatusError,
		domain.StatusComplete,
		domain.StatusLoading,
		domain.StatusLoading,
	}
	seen := map[int]struct{}{}
	for i, row := range rows {
		assert.Equal(t, i+1, row.ID)
		assert.Equal(t, "Oct 12, 2024 at 14:08 PM", row.Timestamp)
		assert.Equal(t, wantStatus[i], row.Status, "row %d", row.ID)
		seen[row.ID] = struct{}{}
	}
	assert.Len(t, seen, len(rows), "ids must be unique")
	assert.True(t, rows[2].IsLink())
	assert.Equal(t, domain.IconYellow, rows[3].Enrichment.Icon)
	assert.Equal(t, domain.IconWhite, rows[4].Enrichment.Icon)
}

func TestRecordsReturnsCopies(t *testing.T) {
	first := Records()
	first[0].Action = "mutated"
	assert.Equal(t, "Bitscale Evaluation - Account relevancy", Records()[0].Action)
}

func TestStats(t *testing.T) {
	stats := Stats()
	require.Len(t, stats, 4)
	assert.Equal(t, domain.Stat{Label: "Total Records", Value: "1,234", Trend: "+12%"}, stats[0])
	assert.False(t, stats[1].TrendUp())
	assert.True(t, stats[2].TrendUp())

	stats[0].Value = "0"
	assert.Equal(t, "1,234", Stats()[0].Value)
}
