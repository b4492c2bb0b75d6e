package models

// SchemaVersion is stamped on every AuditResult
const SchemaVersion = "1.1.0"

// AnalysisMode tells whether every automation or a selection was audited
type AnalysisMode string

const (
	AnalysisFull    AnalysisMode = "full"
	AnalysisPartial AnalysisMode = "partial"
)

// AuditResult is the versioned output of one engine run
type AuditResult struct {
	SchemaVersion    string              `json:"schema_version" yaml:"schema_version"`
	Metadata         AuditMetadata       `json:"audit_metadata" yaml:"audit_metadata"`
	GlobalMetrics    GlobalMetrics       `json:"global_metrics" yaml:"global_metrics"`
	Findings         []ZapFinding        `json:"per_zap_findings" yaml:"per_zap_findings"`
	Opportunities    []RankedOpportunity `json:"opportunities_ranked" yaml:"opportunities_ranked"`
	PlanAnalysis     PlanAnalysis        `json:"plan_analysis" yaml:"plan_analysis"`
	CrossZapPatterns []PatternFinding    `json:"cross_zap_patterns" yaml:"cross_zap_patterns"`
	AppInventory     []AppUsage          `json:"app_inventory" yaml:"app_inventory"`
}

type AuditMetadata struct {
	GeneratedAt         string             `json:"generated_at" yaml:"generated_at"`
	InputSources        InputSources       `json:"input_sources" yaml:"input_sources"`
	PricingAssumptions  PricingAssumptions `json:"pricing_assumptions" yaml:"pricing_assumptions"`
	ConfidenceOverview  ConfidenceOverview `json:"confidence_overview" yaml:"confidence_overview"`
	AnalysisMode        AnalysisMode       `json:"analysis_mode" yaml:"analysis_mode"`
	AnalyzedZapIDs      []string           `json:"analyzed_zap_ids" yaml:"analyzed_zap_ids"`
	SourceSchemaVersion string             `json:"source_schema_version,omitempty" yaml:"source_schema_version,omitempty"`
	Warnings            []string           `json:"warnings" yaml:"warnings"`
}

type InputSources struct {
	ZapJSON bool `json:"zap_json" yaml:"zap_json"`
	TaskCSV bool `json:"task_csv" yaml:"task_csv"`
}

type PricingAssumptions struct {
	PlanTier     PlanFamily  `json:"plan_tier" yaml:"plan_tier"`
	TierCapacity int         `json:"tier_capacity" yaml:"tier_capacity"`
	TierPriceUSD float64     `json:"tier_price_usd" yaml:"tier_price_usd"`
	TaskPriceUSD float64     `json:"task_price_usd" yaml:"task_price_usd"`
	Usage        int         `json:"usage" yaml:"usage"`
	UsageSource  UsageSource `json:"usage_source" yaml:"usage_source"`
	OverCapacity bool        `json:"over_capacity" yaml:"over_capacity"`
}

type ConfidenceOverview struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
	Low    int `json:"low" yaml:"low"`
}

type GlobalMetrics struct {
	TotalZaps                  int     `json:"total_zaps" yaml:"total_zaps"`
	ActiveZaps                 int     `json:"active_zaps" yaml:"active_zaps"`
	TotalMonthlyTasks          int64   `json:"total_monthly_tasks" yaml:"total_monthly_tasks"`
	EstimatedMonthlyWasteTasks float64 `json:"estimated_monthly_waste_tasks" yaml:"estimated_monthly_waste_tasks"`
	EstimatedMonthlyWasteUSD   float64 `json:"estimated_monthly_waste_usd" yaml:"estimated_monthly_waste_usd"`
	EstimatedAnnualWasteUSD    float64 `json:"estimated_annual_waste_usd" yaml:"estimated_annual_waste_usd"`
	ZombieZapCount             int     `json:"zombie_zap_count" yaml:"zombie_zap_count"`
	HighSeverityFlagCount      int     `json:"high_severity_flag_count" yaml:"high_severity_flag_count"`
	FlagCount                  int     `json:"flag_count" yaml:"flag_count"`
	AutomationsWithHistory     int     `json:"automations_with_history" yaml:"automations_with_history"`
	AverageEfficiencyScore     float64 `json:"average_efficiency_score" yaml:"average_efficiency_score"`
}

// ZapFinding holds everything found about one automation
type ZapFinding struct {
	ZapID           string           `json:"zap_id" yaml:"zap_id"`
	ZapName         string           `json:"zap_name" yaml:"zap_name"`
	Status          string           `json:"status" yaml:"status"`
	Enabled         bool             `json:"enabled" yaml:"enabled"`
	IsZombie        bool             `json:"is_zombie" yaml:"is_zombie"`
	TriggerApp      string           `json:"trigger_app" yaml:"trigger_app"`
	Metrics         ZapMetrics       `json:"metrics" yaml:"metrics"`
	Usage           *UsageStats      `json:"usage" yaml:"usage"`
	Confidence      Confidence       `json:"confidence" yaml:"confidence"`
	EfficiencyScore int              `json:"efficiency_score" yaml:"efficiency_score"`
	Flags           []EfficiencyFlag `json:"flags" yaml:"flags"`
	Warnings        []Warning        `json:"warnings" yaml:"warnings"`
}

type ZapMetrics struct {
	Steps int `json:"steps" yaml:"steps"`
	// MonthlyTasks is nil without execution history
	MonthlyTasks  *int64  `json:"monthly_tasks" yaml:"monthly_tasks"`
	TaskStepRatio float64 `json:"task_step_ratio" yaml:"task_step_ratio"`
}

type PlanAnalysis struct {
	CurrentPlan                PlanFamily      `json:"current_plan" yaml:"current_plan"`
	MonthlyTaskUsage           int             `json:"monthly_task_usage" yaml:"monthly_task_usage"`
	MeasuredTaskUsage          *int64          `json:"measured_task_usage" yaml:"measured_task_usage"`
	PlanTaskCapacity           PlanCapacity    `json:"plan_task_capacity" yaml:"plan_task_capacity"`
	UsagePercentile            float64         `json:"usage_percentile" yaml:"usage_percentile"`
	OverCapacity               bool            `json:"over_capacity" yaml:"over_capacity"`
	PremiumFeatures            PremiumFeatures `json:"premium_features_detected" yaml:"premium_features_detected"`
	DowngradeSafe              bool            `json:"downgrade_safe" yaml:"downgrade_safe"`
	RecommendedTierCapacity    int             `json:"recommended_tier_capacity" yaml:"recommended_tier_capacity"`
	PotentialMonthlySavingsUSD float64         `json:"potential_monthly_savings_usd" yaml:"potential_monthly_savings_usd"`
	Underutilization           *EfficiencyFlag `json:"underutilization" yaml:"underutilization"`
}

type PlanCapacity struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

type PremiumFeatures struct {
	Paths       bool `json:"paths" yaml:"paths"`
	Filters     bool `json:"filters" yaml:"filters"`
	Webhooks    bool `json:"webhooks" yaml:"webhooks"`
	CustomLogic bool `json:"custom_logic" yaml:"custom_logic"`
}

// PatternFinding groups one flag code seen across several automations
type PatternFinding struct {
	PatternType       FlagCode `json:"pattern_type" yaml:"pattern_type"`
	PatternName       string   `json:"pattern_name" yaml:"pattern_name"`
	AffectedZapIDs    []string `json:"affected_zap_ids" yaml:"affected_zap_ids"`
	AffectedCount     int      `json:"affected_count" yaml:"affected_count"`
	MedianChainLength *float64 `json:"median_chain_length" yaml:"median_chain_length"`
	TotalWasteTasks   float64  `json:"total_waste_tasks" yaml:"total_waste_tasks"`
	TotalWasteUSD     float64  `json:"total_waste_usd" yaml:"total_waste_usd"`
	Severity          Severity `json:"severity" yaml:"severity"`
	RefactorGuidance  string   `json:"refactor_guidance" yaml:"refactor_guidance"`
}

type AppUsage struct {
	App      string `json:"app" yaml:"app"`
	ZapCount int    `json:"zap_count" yaml:"zap_count"`
}

// ZapSummary is a lightweight listing entry
type ZapSummary struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Status     string   `json:"status" yaml:"status"`
	StepCount  int      `json:"step_count" yaml:"step_count"`
	TriggerApp string   `json:"trigger_app" yaml:"trigger_app"`
	LastRun    string   `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	ErrorRate  *float64 `json:"error_rate" yaml:"error_rate"`
	TotalRuns  int      `json:"total_runs" yaml:"total_runs"`
}

// RoundTrip carries the parameters needed to reproduce a result later
type RoundTrip struct {
	Plan          PlanFamily `json:"plan" yaml:"plan"`
	DeclaredUsage *int       `json:"declared_usage,omitempty" yaml:"declared_usage,omitempty"`
	AnalyzedIDs   []string   `json:"analyzed_ids,omitempty" yaml:"analyzed_ids,omitempty"`
	TopN          int        `json:"top_n,omitempty" yaml:"top_n,omitempty"`
}
