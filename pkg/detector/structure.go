package detector

import (
	"fmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// DetectFormatterChain flags consecutive transform-only steps that one step could replace
func DetectFormatterChain(in Input) *models.EfficiencyFlag {
	longest := 0
	for _, chain := range chains(in) {
		run := 0
		for _, s := range chain {
			if s.Kind == models.KindTransform {
				run++
				if run > longest {
					longest = run
				}
				continue
			}
			run = 0
		}
	}
	if longest < MinFormatterChain {
		return nil
	}

	redundant := longest - 1
	runs, realRuns := monthlyRuns(in.Automation)
	severity := models.SeverityLow
	if longest >= 3 {
		severity = models.SeverityMedium
	}
	return newFlag(in, models.FlagFormatterChain, severity, structuralConfidence(realRuns),
		float64(redundant)*runs,
		fmt.Sprintf("%d formatter steps in a row could be merged into one", longest),
		map[string]any{
			"chain_length":        longest,
			"redundant_steps":     redundant,
			"monthly_runs":        runs,
			"monthly_runs_source": source(realRuns),
		})
}

// DetectInterleavedTransformations flags transform steps scattered between actions
func DetectInterleavedTransformations(in Input) *models.EfficiencyFlag {
	most := 0
	for _, chain := range chains(in) {
		segments, open := 0, false
		for _, s := range chain {
			switch {
			case s.Kind == models.KindTransform:
				if !open {
					segments++
					open = true
				}
			case s.CostBearing():
				open = false
			}
		}
		if segments > most {
			most = segments
		}
	}
	if most < 2 {
		return nil
	}

	redundant := most - 1
	runs, realRuns := monthlyRuns(in.Automation)
	severity := models.SeverityLow
	if most >= 3 {
		severity = models.SeverityMedium
	}
	return newFlag(in, models.FlagInterleavedTransforms, severity, structuralConfidence(realRuns),
		float64(redundant)*runs,
		fmt.Sprintf("Transformations are split across %d places between actions", most),
		map[string]any{
			"transform_segments":  most,
			"redundant_steps":     redundant,
			"monthly_runs":        runs,
			"monthly_runs_source": source(realRuns),
		})
}

// DetectTaskStepInflation flags automations billing more steps per run than the benchmark
func DetectTaskStepInflation(in Input) *models.EfficiencyFlag {
	billable := 0
	for _, chain := range chains(in) {
		n := 0
		for _, s := range chain {
			if s.CostBearing() {
				n++
			}
		}
		if n > billable {
			billable = n
		}
	}
	if billable <= BillableStepBenchmark {
		return nil
	}

	redundant := billable - BillableStepBenchmark
	runs, realRuns := monthlyRuns(in.Automation)
	severity := models.SeverityMedium
	if billable >= InflationHighSteps {
		severity = models.SeverityHigh
	}
	return newFlag(in, models.FlagTaskStepInflation, severity, structuralConfidence(realRuns),
		float64(redundant)*runs,
		fmt.Sprintf("%d billable steps per run against a benchmark of %d", billable, BillableStepBenchmark),
		map[string]any{
			"billable_steps":      billable,
			"benchmark_steps":     BillableStepBenchmark,
			"redundant_steps":     redundant,
			"monthly_runs":        runs,
			"monthly_runs_source": source(realRuns),
		})
}
