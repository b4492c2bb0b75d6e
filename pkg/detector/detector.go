// Package detector evaluates automations against a fixed set of inefficiency patterns.
package detector

import (
	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/pricing"
	"github.com/opscart/zap-lighthouse/pkg/topology"
)

// Fixed assumptions used when real execution data is missing
const (
	FallbackMonthlyRuns   = 500.0
	PollingOverhead       = 0.20
	FallbackRejectionRate = 0.30

	ErrorLoopThreshold     = 10.0 // percent
	ErrorLoopHighThreshold = 50.0 // percent

	MinFormatterChain     = 2
	BillableStepBenchmark = 5
	InflationHighSteps    = 10
	UnderutilizationRatio = 0.5
)

// Input is everything a detector may look at for one automation
type Input struct {
	Automation *models.Automation
	Topology   *topology.Topology
	Pricing    models.PricingResult
	Effort     EffortTable
}

// Func inspects one automation and returns a flag, or nil when the pattern does not apply
type Func func(in Input) *models.EfficiencyFlag

// Detector pairs a flag code with the function that emits it
type Detector struct {
	Code   models.FlagCode
	Detect Func
}

// Registry is the ordered detector set applied to every automation
var Registry = []Detector{
	{Code: models.FlagZombieZap, Detect: DetectZombie},
	{Code: models.FlagErrorLoop, Detect: DetectErrorLoop},
	{Code: models.FlagLateFilter, Detect: DetectLateFilter},
	{Code: models.FlagPollingTrigger, Detect: DetectPollingTrigger},
	{Code: models.FlagFormatterChain, Detect: DetectFormatterChain},
	{Code: models.FlagInterleavedTransforms, Detect: DetectInterleavedTransformations},
	{Code: models.FlagTaskStepInflation, Detect: DetectTaskStepInflation},
}

// Engine runs the registry with a fixed effort table
type Engine struct {
	detectors []Detector
	effort    EffortTable
}

func New(effort EffortTable) *Engine {
	return &Engine{detectors: Registry, effort: effort}
}

// Detect applies every registered detector to one automation, in registry order
func (e *Engine) Detect(in Input) []models.EfficiencyFlag {
	in.Effort = e.effort
	if in.Topology == nil {
		in.Topology = topology.Build(in.Automation.Steps)
	}

	flags := []models.EfficiencyFlag{}
	for _, d := range e.detectors {
		if flag := d.Detect(in); flag != nil {
			flags = append(flags, *flag)
		}
	}
	return flags
}

// monthlyRuns returns the run count for the window and whether it was observed
func monthlyRuns(a *models.Automation) (float64, bool) {
	if a.HasHistory() {
		return float64(a.Usage.Total), true
	}
	return FallbackMonthlyRuns, false
}

func newFlag(in Input, code models.FlagCode, severity models.Severity, confidence models.Confidence,
	wastedTasks float64, message string, meta map[string]any) *models.EfficiencyFlag {
	monthly := wastedTasks * in.Pricing.CostPerTask
	if meta == nil {
		meta = map[string]any{}
	}
	return &models.EfficiencyFlag{
		Code:       code,
		Severity:   severity,
		Confidence: confidence,
		Message:    message,
		Impact: models.FlagImpact{
			MonthlySavingsUSD:  monthly,
			AnnualSavingsUSD:   pricing.Annualize(monthly),
			MonthlyWastedTasks: wastedTasks,
		},
		Implementation: models.FlagImplementation{EffortHours: in.Effort.For(code)},
		Meta:           meta,
	}
}

// structuralConfidence grades detectors whose only uncertainty is the run count
func structuralConfidence(realRuns bool) models.Confidence {
	if realRuns {
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}

func chains(in Input) [][]models.Step {
	out := make([][]models.Step, 0, len(in.Topology.Branches))
	for _, b := range in.Topology.Branches {
		out = append(out, topology.Chain(in.Automation.Steps, b))
	}
	return out
}
