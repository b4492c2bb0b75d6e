package models

// Trend describes how the error rate moved between the two halves of the window
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// UsageStats holds per-automation counters derived from task history
type UsageStats struct {
	Total    int `json:"total_runs"`
	Success  int `json:"success_count"`
	Errors   int `json:"error_count"`
	Filtered int `json:"filtered_count"`

	// ErrorRate is a percentage, nil when Total is zero
	ErrorRate *float64 `json:"error_rate"`
	Trend     *Trend   `json:"error_trend"`

	LongestErrorStreak int    `json:"longest_error_streak"`
	MostCommonError    string `json:"most_common_error,omitempty"`
	LastRun            string `json:"last_run,omitempty"`

	// NoRecords is set when history was supplied but held no rows for the automation
	NoRecords bool `json:"no_records,omitempty"`
}

// FilterRate returns the share of runs stopped by a filter, and whether it was observed
func (u *UsageStats) FilterRate() (float64, bool) {
	if u == nil || u.Total == 0 || u.Filtered == 0 {
		return 0, false
	}
	return float64(u.Filtered) / float64(u.Total), true
}
