package analyzer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/models"
)

func historyTable(rows [][]string) archive.Table {
	return archive.Table{
		Name:   "task_history.csv",
		Header: []string{"Timestamp", "Zap ID", "Status", "Error Message"},
		Rows:   rows,
	}
}

func TestAggregateErrorScenario(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var rows [][]string
	for i := 0; i < 100; i++ {
		status, msg := "success", ""
		switch {
		case i%10 == 0 && i < 80:
			status, msg = "error", "AuthError"
		case i >= 90 && i < 94:
			status, msg = "error", "Timeout"
		}
		ts := start.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)
		rows = append(rows, []string{ts, "42", status, msg})
	}

	h := Aggregate([]archive.Table{historyTable(rows)})

	require.True(t, h.Present)
	stats := h.Stats["42"]
	require.NotNil(t, stats)
	assert.Equal(t, 100, stats.Total)
	assert.Equal(t, 12, stats.Errors)
	assert.Equal(t, 88, stats.Success)
	require.NotNil(t, stats.ErrorRate)
	assert.InDelta(t, 12.0, *stats.ErrorRate, 1e-9)
	assert.Equal(t, "AuthError", stats.MostCommonError)
	assert.Equal(t, 4, stats.LongestErrorStreak)
	assert.Equal(t, start.Add(99*time.Hour).Format(time.RFC3339), stats.LastRun)
}

func TestAggregateDetectsColumnsByName(t *testing.T) {
	table := archive.Table{
		Name:   "runs.csv",
		Header: []string{"STATUS", "ignored", "zap_id"},
		Rows: [][]string{
			{"success", "x", "7"},
			{"filtered", "x", "7"},
			{"error", "x", ""},
			{"error"},
		},
	}

	h := Aggregate([]archive.Table{table})

	require.True(t, h.Present)
	assert.Equal(t, 2, h.DroppedRows)
	stats := h.Stats["7"]
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Filtered)
	assert.Empty(t, stats.MostCommonError)
	require.NotNil(t, stats.Trend)
	assert.Equal(t, models.TrendStable, *stats.Trend)
}

func TestAggregateIgnoresNonHistoryTables(t *testing.T) {
	h := Aggregate([]archive.Table{{Name: "apps.csv", Header: []string{"app", "count"}, Rows: [][]string{{"a", "1"}}}})
	assert.False(t, h.Present)
	assert.Empty(t, h.Stats)
}

func TestAggregateSortsChronologically(t *testing.T) {
	rows := [][]string{
		{"2024-01-04 00:00:00", "1", "error", "late"},
		{"2024-01-01 00:00:00", "1", "success", ""},
		{"2024-01-03 00:00:00", "1", "error", "late"},
		{"2024-01-02 00:00:00", "1", "success", ""},
	}

	stats := Aggregate([]archive.Table{historyTable(rows)}).Stats["1"]

	require.NotNil(t, stats.Trend)
	assert.Equal(t, models.TrendIncreasing, *stats.Trend)
	assert.Equal(t, 2, stats.LongestErrorStreak)
	assert.Equal(t, "2024-01-04T00:00:00Z", stats.LastRun)
}

func TestAggregateKeepsFileOrderWithoutTimestamps(t *testing.T) {
	rows := [][]string{
		{"", "1", "error", "boom"},
		{"", "1", "error", "boom"},
		{"", "1", "success", ""},
		{"", "1", "success", ""},
	}

	stats := Aggregate([]archive.Table{historyTable(rows)}).Stats["1"]

	require.NotNil(t, stats.Trend)
	assert.Equal(t, models.TrendDecreasing, *stats.Trend)
	assert.Empty(t, stats.LastRun)
}

func TestAggregateMostCommonErrorTieKeepsFirstSeen(t *testing.T) {
	rows := [][]string{
		{"", "1", "error", "B"},
		{"", "1", "error", "A"},
		{"", "1", "error", "A"},
		{"", "1", "error", "B"},
	}
	stats := Aggregate([]archive.Table{historyTable(rows)}).Stats["1"]
	assert.Equal(t, "B", stats.MostCommonError)
}

func TestAggregateInvariantCountsNeverExceedTotal(t *testing.T) {
	statuses := []string{"success", "error", "filtered", "waiting", "HALTED", "Failed"}
	var rows [][]string
	for i := 0; i < 60; i++ {
		rows = append(rows, []string{"", fmt.Sprint(i % 3), statuses[i%len(statuses)], "e"})
	}

	h := Aggregate([]archive.Table{historyTable(rows)})

	for id, s := range h.Stats {
		assert.LessOrEqual(t, s.Success+s.Errors+s.Filtered, s.Total, id)
	}
}

func TestDetectColumnsAmbiguous(t *testing.T) {
	cols, warnings := DetectColumns([]string{"Zap ID", "Status", "State", "Error"})

	assert.Equal(t, 0, cols.ID)
	assert.Equal(t, 1, cols.Status)
	assert.Equal(t, 3, cols.Error)
	assert.Equal(t, -1, cols.Timestamp)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "State")
}

func TestAttach(t *testing.T) {
	export := &models.WorkflowExport{Automations: []models.Automation{{ID: "1"}, {ID: "2"}}}
	h := &History{Present: true, Stats: map[string]*models.UsageStats{
		"1": {Total: 3, Success: 3},
		"9": {Total: 1},
	}}

	attached := Attach(export, h)

	require.NotNil(t, attached.Automations[0].Usage)
	assert.Equal(t, 3, attached.Automations[0].Usage.Total)
	require.NotNil(t, attached.Automations[1].Usage, "observed window yields zero counters")
	assert.Equal(t, 0, attached.Automations[1].Usage.Total)
	assert.Nil(t, attached.Automations[1].Usage.ErrorRate)
	assert.True(t, attached.Automations[1].Usage.NoRecords)
	assert.False(t, attached.Automations[0].Usage.NoRecords)
	assert.Nil(t, export.Automations[0].Usage, "input export is not mutated")
	assert.Equal(t, []string{"9"}, h.Unmatched(export))

	absent := Attach(export, &History{Stats: map[string]*models.UsageStats{}})
	assert.Nil(t, absent.Automations[0].Usage)
}
