package detector

import "github.com/opscart/zap-lighthouse/pkg/models"

// DetectZombie flags enabled automations that did not run in an observed window.
// Without history there is no evidence either way and nothing is emitted.
func DetectZombie(in Input) *models.EfficiencyFlag {
	a := in.Automation
	if !a.Enabled || a.Usage == nil || a.Usage.Total > 0 {
		return nil
	}
	return newFlag(in, models.FlagZombieZap, models.SeverityLow, models.ConfidenceHigh, 0,
		"Zap is switched on but recorded no runs in the task history window",
		map[string]any{"status": a.Status})
}
