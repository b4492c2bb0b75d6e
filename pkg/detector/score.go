package detector

import "github.com/opscart/zap-lighthouse/pkg/models"

var severityPenalty = map[models.Severity]int{
	models.SeverityHigh:   25,
	models.SeverityMedium: 10,
	models.SeverityLow:    5,
}

// error loops use their own deductions
var errorLoopPenalty = map[models.Severity]int{
	models.SeverityHigh:   30,
	models.SeverityMedium: 20,
}

// Score rates an automation from 0 to 100 given its flags
func Score(flags []models.EfficiencyFlag) int {
	score := 100
	for _, f := range flags {
		if f.Code == models.FlagErrorLoop {
			if p, ok := errorLoopPenalty[f.Severity]; ok {
				score -= p
				continue
			}
		}
		score -= severityPenalty[f.Severity]
	}
	if score < 0 {
		return 0
	}
	return score
}
