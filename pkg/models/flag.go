package models

// FlagCode identifies an efficiency finding
type FlagCode string

const (
	FlagFormatterChain        FlagCode = "FORMATTER_CHAIN"
	FlagInterleavedTransforms FlagCode = "INTERLEAVED_TRANSFORMATIONS"
	FlagTaskStepInflation     FlagCode = "TASK_STEP_COST_INFLATION"
	FlagLateFilter            FlagCode = "LATE_FILTER"
	FlagZombieZap             FlagCode = "ZOMBIE_ZAP"
	FlagPlanUnderutilization  FlagCode = "PLAN_UNDERUTILIZATION"
	FlagPollingTrigger        FlagCode = "POLLING_TRIGGER"
	FlagErrorLoop             FlagCode = "ERROR_LOOP"
)

// FlagCodes lists every known code in registry order
var FlagCodes = []FlagCode{
	FlagZombieZap,
	FlagErrorLoop,
	FlagLateFilter,
	FlagPollingTrigger,
	FlagFormatterChain,
	FlagInterleavedTransforms,
	FlagTaskStepInflation,
	FlagPlanUnderutilization,
}

// Valid reports whether the code belongs to the closed set
func (c FlagCode) Valid() bool {
	for _, known := range FlagCodes {
		if c == known {
			return true
		}
	}
	return false
}

// Severity is the technical severity of a finding
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Confidence tags how much of a savings figure comes from real data
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Rank orders confidence levels, higher is more certain. Unknown values rank 0.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// WarningCode identifies a non-fatal anomaly
type WarningCode string

const (
	WarningIncompleteData WarningCode = "INCOMPLETE_DATA"
	WarningUnusualPattern WarningCode = "UNUSUAL_PATTERN"
	WarningHighComplexity WarningCode = "HIGH_COMPLEXITY"
)

// Warning is attached to the automation it concerns
type Warning struct {
	Code    WarningCode `json:"code" yaml:"code"`
	Message string      `json:"message" yaml:"message"`
}

// FlagImpact is the financial side of a finding
type FlagImpact struct {
	MonthlySavingsUSD  float64 `json:"estimated_monthly_savings_usd" yaml:"estimated_monthly_savings_usd"`
	AnnualSavingsUSD   float64 `json:"estimated_annual_savings_usd" yaml:"estimated_annual_savings_usd"`
	MonthlyWastedTasks float64 `json:"estimated_monthly_wasted_tasks" yaml:"estimated_monthly_wasted_tasks"`
}

// FlagImplementation describes the remediation cost
type FlagImplementation struct {
	EffortHours float64 `json:"estimated_effort_hours" yaml:"estimated_effort_hours"`
}

// EfficiencyFlag is one typed finding on an automation
type EfficiencyFlag struct {
	Code           FlagCode           `json:"code" yaml:"code"`
	Severity       Severity           `json:"severity" yaml:"severity"`
	Confidence     Confidence         `json:"confidence" yaml:"confidence"`
	Message        string             `json:"message" yaml:"message"`
	Impact         FlagImpact         `json:"impact" yaml:"impact"`
	Implementation FlagImplementation `json:"implementation" yaml:"implementation"`
	Meta           map[string]any     `json:"meta" yaml:"meta"`
}

// RankedOpportunity is the flat projection used for prioritisation
type RankedOpportunity struct {
	ZapID             string     `json:"zap_id" yaml:"zap_id"`
	FlagCode          FlagCode   `json:"flag_code" yaml:"flag_code"`
	MonthlySavingsUSD float64    `json:"estimated_monthly_savings_usd" yaml:"estimated_monthly_savings_usd"`
	Confidence        Confidence `json:"confidence" yaml:"confidence"`
	Rank              int        `json:"rank" yaml:"rank"`
}
