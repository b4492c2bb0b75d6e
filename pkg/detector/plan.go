package detector

import (
	"fmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// DetectPlanUnderutilization compares measured usage with the resolved tier capacity.
// The flag is informational: it feeds plan analysis and carries no per-automation savings.
func DetectPlanUnderutilization(p models.PricingResult, measured int64, hasMeasured bool, effort EffortTable) *models.EfficiencyFlag {
	if !hasMeasured || p.TierCapacity <= 0 {
		return nil
	}
	utilization := float64(measured) / float64(p.TierCapacity)
	if utilization >= UnderutilizationRatio {
		return nil
	}

	in := Input{Pricing: p, Effort: effort}
	return newFlag(in, models.FlagPlanUnderutilization, models.SeverityLow, models.ConfidenceHigh, 0,
		fmt.Sprintf("Measured usage is %.0f%% of the %d-task tier", utilization*100, p.TierCapacity),
		map[string]any{
			"measured_usage": measured,
			"tier_capacity":  p.TierCapacity,
			"utilization":    utilization,
		})
}
