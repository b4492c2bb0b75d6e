package detector

import (
	"fmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// DetectErrorLoop flags automations whose observed error rate exceeds the threshold.
// Every failed run is billed, so the waste is the error count itself.
func DetectErrorLoop(in Input) *models.EfficiencyFlag {
	u := in.Automation.Usage
	if u == nil || u.Total < 1 || u.ErrorRate == nil || *u.ErrorRate <= ErrorLoopThreshold {
		return nil
	}

	severity := models.SeverityMedium
	if *u.ErrorRate > ErrorLoopHighThreshold {
		severity = models.SeverityHigh
	}

	meta := map[string]any{
		"error_rate":           *u.ErrorRate,
		"error_count":          u.Errors,
		"total_runs":           u.Total,
		"longest_error_streak": u.LongestErrorStreak,
	}
	if u.MostCommonError != "" {
		meta["most_common_error"] = u.MostCommonError
	}
	if u.Trend != nil {
		meta["error_trend"] = string(*u.Trend)
	}

	return newFlag(in, models.FlagErrorLoop, severity, models.ConfidenceHigh, float64(u.Errors),
		fmt.Sprintf("%.1f%% of %d runs failed", *u.ErrorRate, u.Total), meta)
}
