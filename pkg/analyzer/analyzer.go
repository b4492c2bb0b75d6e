// Package analyzer turns raw task-history tables into per-automation usage statistics.
package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/models"
)

type outcome int

const (
	outcomeOther outcome = iota
	outcomeSuccess
	outcomeError
	outcomeFiltered
)

var statusClasses = map[string]outcome{
	"success":    outcomeSuccess,
	"successful": outcomeSuccess,
	"ok":         outcomeSuccess,
	"completed":  outcomeSuccess,
	"error":      outcomeError,
	"errored":    outcomeError,
	"failed":     outcomeError,
	"failure":    outcomeError,
	"filtered":   outcomeFiltered,
	"halted":     outcomeFiltered,
	"stopped":    outcomeFiltered,
	"skipped":    outcomeFiltered,
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"2006-01-02",
}

// History is the aggregated view of every history table in an archive
type History struct {
	// Present is true when at least one table carried the minimal column set
	Present     bool
	Stats       map[string]*models.UsageStats
	Tables      int
	Rows        int
	DroppedRows int
	Warnings    []string
}

type run struct {
	status  outcome
	message string
	rawTime string
	at      time.Time
	parsed  bool
}

// Aggregate groups history rows by automation id and computes usage statistics
func Aggregate(tables []archive.Table) *History {
	h := &History{Stats: map[string]*models.UsageStats{}}
	runs := map[string][]run{}
	var order []string

	for _, table := range tables {
		cols, warnings := DetectColumns(table.Header)
		if !cols.IsHistory() {
			continue
		}
		h.Present = true
		h.Tables++
		for _, w := range warnings {
			h.Warnings = append(h.Warnings, fmt.Sprintf("%s: %s", table.Name, w))
		}

		for _, row := range table.Rows {
			id := cell(row, cols.ID)
			if id == "" || cols.Status >= len(row) {
				h.DroppedRows++
				continue
			}
			r := run{
				status:  classify(cell(row, cols.Status)),
				message: cell(row, cols.Error),
				rawTime: cell(row, cols.Timestamp),
			}
			r.at, r.parsed = parseTimestamp(r.rawTime)

			if _, seen := runs[id]; !seen {
				order = append(order, id)
			}
			runs[id] = append(runs[id], r)
			h.Rows++
		}
	}

	for _, id := range order {
		h.Stats[id] = summarize(runs[id])
	}
	return h
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func classify(status string) outcome {
	return statusClasses[strings.ToLower(status)]
}

func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// summarize makes one pass over an automation's runs
func summarize(runs []run) *models.UsageStats {
	chronological := true
	for _, r := range runs {
		if !r.parsed {
			chronological = false
			break
		}
	}
	if chronological {
		sort.SliceStable(runs, func(i, j int) bool { return runs[i].at.Before(runs[j].at) })
	}

	stats := &models.UsageStats{Total: len(runs)}
	mid := len(runs) / 2
	var firstHalfErrors, secondHalfErrors, streak int
	var lastParsed time.Time
	var lastRaw string
	freq := map[string]int{}
	var messages []string

	for i, r := range runs {
		switch r.status {
		case outcomeSuccess:
			stats.Success++
		case outcomeFiltered:
			stats.Filtered++
		case outcomeError:
			stats.Errors++
			if i < mid {
				firstHalfErrors++
			} else {
				secondHalfErrors++
			}
			if r.message != "" {
				if freq[r.message] == 0 {
					messages = append(messages, r.message)
				}
				freq[r.message]++
			}
		}

		if r.status == outcomeError {
			streak++
			if streak > stats.LongestErrorStreak {
				stats.LongestErrorStreak = streak
			}
		} else {
			streak = 0
		}

		if r.parsed && r.at.After(lastParsed) {
			lastParsed = r.at
		}
		if r.rawTime > lastRaw {
			lastRaw = r.rawTime
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.Errors) / float64(stats.Total) * 100
		stats.ErrorRate = &rate
	}
	stats.Trend = ErrorTrend(firstHalfErrors, mid, secondHalfErrors, len(runs)-mid)

	best := 0
	for _, m := range messages {
		if freq[m] > best {
			best = freq[m]
			stats.MostCommonError = m
		}
	}

	switch {
	case !lastParsed.IsZero():
		stats.LastRun = lastParsed.UTC().Format(time.RFC3339)
	case lastRaw != "":
		stats.LastRun = lastRaw
	}

	return stats
}

// Attach returns a copy of the export with usage statistics set on each automation.
// When history is present an automation without rows gets observed zero counters;
// without history Usage stays nil.
func Attach(export *models.WorkflowExport, h *History) *models.WorkflowExport {
	out := *export
	out.Automations = make([]models.Automation, len(export.Automations))
	for i, a := range export.Automations {
		if h != nil && h.Present {
			if stats, ok := h.Stats[a.ID]; ok {
				copied := *stats
				a.Usage = &copied
			} else {
				a.Usage = &models.UsageStats{NoRecords: true}
			}
		}
		out.Automations[i] = a
	}
	return &out
}

// Unmatched lists history ids that do not belong to any automation in the export
func (h *History) Unmatched(export *models.WorkflowExport) []string {
	known := make(map[string]bool, len(export.Automations))
	for _, a := range export.Automations {
		known[a.ID] = true
	}
	var ids []string
	for id := range h.Stats {
		if !known[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
