// Package audit ranks flagged opportunities and assembles the self-checked audit result.
package audit

import (
	"fmt"
	"time"

	"github.com/opscart/zap-lighthouse/pkg/analyzer"
	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/detector"
	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/pricing"
	"github.com/opscart/zap-lighthouse/pkg/topology"
)

// DowngradeUtilization is the usage share below which a smaller tier is considered safe
const DowngradeUtilization = 0.7

// Input is everything the assembler needs. Automations, Topologies and Flags are parallel slices.
type Input struct {
	Automations []models.Automation
	Topologies  []*topology.Topology
	Flags       [][]models.EfficiencyFlag

	Pricing        models.PricingResult
	Measured       int64
	HasMeasured    bool
	HistoryPresent bool

	// Recommended is the tier the measured usage would resolve to, if known
	Recommended      *models.PricingResult
	Underutilization *models.EfficiencyFlag

	Mode                models.AnalysisMode
	AnalyzedIDs         []string
	SourceSchemaVersion string
	Warnings            []string
	GeneratedAt         time.Time
	TopN                int
}

// Assemble builds the result and validates it before returning
func Assemble(in Input) (*models.AuditResult, error) {
	if len(in.Topologies) != len(in.Automations) || len(in.Flags) != len(in.Automations) {
		return nil, fmt.Errorf("%w: %d automations, %d topologies, %d flag sets", ErrInvariantViolation,
			len(in.Automations), len(in.Topologies), len(in.Flags))
	}

	findings := make([]models.ZapFinding, 0, len(in.Automations))
	for i := range in.Automations {
		findings = append(findings, buildFinding(&in.Automations[i], in.Topologies[i], in.Flags[i]))
	}

	mode := in.Mode
	if mode == "" {
		mode = models.AnalysisFull
	}
	analyzed := in.AnalyzedIDs
	if analyzed == nil {
		analyzed = make([]string, 0, len(findings))
		for _, f := range findings {
			analyzed = append(analyzed, f.ZapID)
		}
	}
	warnings := in.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	result := &models.AuditResult{
		SchemaVersion: models.SchemaVersion,
		Metadata: models.AuditMetadata{
			GeneratedAt: in.GeneratedAt.UTC().Format(time.RFC3339),
			InputSources: models.InputSources{
				ZapJSON: true,
				TaskCSV: in.HistoryPresent,
			},
			PricingAssumptions: models.PricingAssumptions{
				PlanTier:     in.Pricing.Plan,
				TierCapacity: in.Pricing.TierCapacity,
				TierPriceUSD: in.Pricing.TierPrice,
				TaskPriceUSD: in.Pricing.CostPerTask,
				Usage:        in.Pricing.Usage,
				UsageSource:  in.Pricing.UsageSource,
				OverCapacity: in.Pricing.OverCapacity,
			},
			ConfidenceOverview:  confidenceOverview(findings),
			AnalysisMode:        mode,
			AnalyzedZapIDs:      analyzed,
			SourceSchemaVersion: in.SourceSchemaVersion,
			Warnings:            warnings,
		},
		GlobalMetrics:    globalMetrics(findings),
		Findings:         findings,
		Opportunities:    Rank(findings, in.TopN),
		PlanAnalysis:     planAnalysis(in),
		CrossZapPatterns: CrossZapPatterns(findings),
		AppInventory:     AppInventory(in.Automations),
	}
	result.GlobalMetrics.TotalZaps = len(analyzed)

	if err := Validate(result); err != nil {
		return nil, err
	}
	return result, nil
}

func buildFinding(a *models.Automation, topo *topology.Topology, flags []models.EfficiencyFlag) models.ZapFinding {
	if flags == nil {
		flags = []models.EfficiencyFlag{}
	}
	warnings := []models.Warning{}
	if topo != nil {
		warnings = append(warnings, topo.Warnings...)
	}
	switch {
	case a.Usage == nil:
		warnings = append(warnings, models.Warning{
			Code:    models.WarningIncompleteData,
			Message: "no execution history; run-dependent figures use fallback assumptions",
		})
	case a.Usage.NoRecords:
		warnings = append(warnings, models.Warning{
			Code:    models.WarningIncompleteData,
			Message: "task history has no rows for this automation; counted as zero runs",
		})
	}

	f := models.ZapFinding{
		ZapID:           a.ID,
		ZapName:         a.Title,
		Status:          a.Status,
		Enabled:         a.Enabled,
		Metrics:         models.ZapMetrics{Steps: len(a.Steps)},
		Usage:           a.Usage,
		Confidence:      findingConfidence(a, topo),
		EfficiencyScore: detector.Score(flags),
		Flags:           flags,
		Warnings:        warnings,
	}
	if trigger := a.Trigger(); trigger != nil && trigger.App != "" {
		f.TriggerApp = archive.AppName(trigger.App)
	}
	if tasks, ok := a.MonthlyTasks(); ok {
		f.Metrics.MonthlyTasks = &tasks
		if len(a.Steps) > 0 {
			f.Metrics.TaskStepRatio = float64(tasks) / float64(len(a.Steps))
		}
	}
	for _, flag := range flags {
		if flag.Code == models.FlagZombieZap {
			f.IsZombie = true
		}
	}
	return f
}

func findingConfidence(a *models.Automation, topo *topology.Topology) models.Confidence {
	switch {
	case a.Usage == nil:
		return models.ConfidenceLow
	case topo != nil && topo.Unusual():
		return models.ConfidenceMedium
	}
	return models.ConfidenceHigh
}

func confidenceOverview(findings []models.ZapFinding) models.ConfidenceOverview {
	var o models.ConfidenceOverview
	for _, f := range findings {
		for _, flag := range f.Flags {
			switch flag.Confidence {
			case models.ConfidenceHigh:
				o.High++
			case models.ConfidenceMedium:
				o.Medium++
			case models.ConfidenceLow:
				o.Low++
			}
		}
	}
	return o
}

func globalMetrics(findings []models.ZapFinding) models.GlobalMetrics {
	g := models.GlobalMetrics{TotalZaps: len(findings)}
	scores := make([]float64, 0, len(findings))
	for _, f := range findings {
		if f.Enabled {
			g.ActiveZaps++
		}
		if f.IsZombie {
			g.ZombieZapCount++
		}
		if f.Usage != nil {
			g.AutomationsWithHistory++
		}
		if f.Metrics.MonthlyTasks != nil {
			g.TotalMonthlyTasks += *f.Metrics.MonthlyTasks
		}
		scores = append(scores, float64(f.EfficiencyScore))
		for _, flag := range f.Flags {
			g.FlagCount++
			if flag.Severity == models.SeverityHigh {
				g.HighSeverityFlagCount++
			}
			g.EstimatedMonthlyWasteTasks += flag.Impact.MonthlyWastedTasks
			g.EstimatedMonthlyWasteUSD += flag.Impact.MonthlySavingsUSD
		}
	}
	g.EstimatedAnnualWasteUSD = pricing.Annualize(g.EstimatedMonthlyWasteUSD)
	g.AverageEfficiencyScore = analyzer.Average(scores)
	return g
}

func planAnalysis(in Input) models.PlanAnalysis {
	p := in.Pricing
	pa := models.PlanAnalysis{
		CurrentPlan:      p.Plan,
		MonthlyTaskUsage: p.Usage,
		PlanTaskCapacity: models.PlanCapacity{
			Min: p.PreviousCapacity,
			Max: p.TierCapacity,
		},
		OverCapacity:            p.OverCapacity,
		PremiumFeatures:         PremiumFeatures(in.Automations),
		RecommendedTierCapacity: p.TierCapacity,
		Underutilization:        in.Underutilization,
	}
	if in.HasMeasured {
		measured := in.Measured
		pa.MeasuredTaskUsage = &measured
	}
	if p.TierCapacity > 0 {
		pa.UsagePercentile = float64(p.Usage) / float64(p.TierCapacity)
	}
	pa.DowngradeSafe = pa.UsagePercentile < DowngradeUtilization && !pa.PremiumFeatures.Paths
	if in.Recommended != nil {
		pa.RecommendedTierCapacity = in.Recommended.TierCapacity
		pa.PotentialMonthlySavingsUSD = pricing.MonthlyDelta(p.TierPrice, in.Recommended.TierPrice)
	}
	return pa
}
