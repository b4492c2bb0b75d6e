package detector

import (
	"fmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// lateFilterHighSteps is the number of billable steps ahead of a filter that makes placement severe
const lateFilterHighSteps = 3

// DetectLateFilter flags filters that run after billable steps. Runs the filter rejects
// have already paid for every billable step placed before it.
func DetectLateFilter(in Input) *models.EfficiencyFlag {
	worst, position := 0, 0
	var filterStep models.Step
	for _, chain := range chains(in) {
		billable := 0
		for pos, s := range chain {
			if s.Kind == models.KindFilter {
				if pos > 1 && billable > worst {
					worst, position, filterStep = billable, pos, s
				}
				break
			}
			if s.CostBearing() {
				billable++
			}
		}
	}
	if worst == 0 {
		return nil
	}

	runs, realRuns := monthlyRuns(in.Automation)
	rejection, realRejection := in.Automation.Usage.FilterRate()
	if !realRejection {
		rejection = FallbackRejectionRate
	}

	confidence := models.ConfidenceLow
	switch {
	case realRuns && realRejection:
		confidence = models.ConfidenceHigh
	case realRuns || realRejection:
		confidence = models.ConfidenceMedium
	}

	severity := models.SeverityMedium
	if worst >= lateFilterHighSteps {
		severity = models.SeverityHigh
	}

	wasted := float64(worst) * rejection * runs
	return newFlag(in, models.FlagLateFilter, severity, confidence, wasted,
		fmt.Sprintf("Filter at step %d runs after %d billable step(s)", position+1, worst),
		map[string]any{
			"filter_step_id":        filterStep.ID,
			"filter_position":       position,
			"billable_steps_before": worst,
			"rejection_rate":        rejection,
			"rejection_rate_source": source(realRejection),
			"monthly_runs":          runs,
			"monthly_runs_source":   source(realRuns),
		})
}

func source(real bool) string {
	if real {
		return "observed"
	}
	return "assumed"
}
