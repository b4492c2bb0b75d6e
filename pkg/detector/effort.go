package detector

import (
	"strings"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// DefaultEffortHours is used for codes missing from the table
const DefaultEffortHours = 1.0

// EffortTable holds remediation estimates in hours per flag code
type EffortTable struct {
	Hours   map[models.FlagCode]float64
	Default float64
}

// DefaultEffort returns the stock remediation estimates
func DefaultEffort() EffortTable {
	return EffortTable{
		Hours: map[models.FlagCode]float64{
			models.FlagZombieZap:             0.25,
			models.FlagErrorLoop:             2.0,
			models.FlagLateFilter:            0.5,
			models.FlagPollingTrigger:        1.0,
			models.FlagFormatterChain:        1.0,
			models.FlagInterleavedTransforms: 1.5,
			models.FlagTaskStepInflation:     3.0,
			models.FlagPlanUnderutilization:  0.5,
		},
		Default: DefaultEffortHours,
	}
}

// For returns the estimate for a code, falling back to the table default
func (t EffortTable) For(code models.FlagCode) float64 {
	if h, ok := t.Hours[code]; ok && h >= 0 {
		return h
	}
	if t.Default > 0 {
		return t.Default
	}
	return DefaultEffortHours
}

// EffortFromMap builds a table from configuration keyed by flag code name
func EffortFromMap(hours map[string]float64, fallback float64) EffortTable {
	table := DefaultEffort()
	for name, h := range hours {
		table.Hours[models.FlagCode(strings.ToUpper(name))] = h
	}
	if fallback > 0 {
		table.Default = fallback
	}
	return table
}
