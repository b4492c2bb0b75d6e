package reporter

import (
	"sort"
	"strings"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// Report is a presentation view over one audit result. Numbers are taken from the result as-is.
type Report struct {
	GeneratedAt    string
	Plan           models.PlanFamily
	TierCapacity   int
	TierPrice      float64
	UsageSource    models.UsageSource
	TotalZaps      int
	ActiveZaps     int
	ZombieCount    int
	FlagCount      int
	MonthlySavings float64
	AnnualSavings  float64
	AverageScore   float64
	Opportunities  []Opportunity
	FlagStats      []*FlagStats
	Patterns       []models.PatternFinding
	PlanAnalysis   models.PlanAnalysis
	Warnings       []string
}

// Opportunity is a ranked flag joined with its automation
type Opportunity struct {
	Rank           int
	ZapID          string
	ZapName        string
	Code           models.FlagCode
	Severity       models.Severity
	Confidence     models.Confidence
	Message        string
	MonthlySavings float64
	EffortHours    float64
}

// FlagStats holds statistics per flag code
type FlagStats struct {
	Code           models.FlagCode
	Count          int
	HighSeverity   int
	MonthlySavings float64
}

// genericTitles are the names the platform gives automations nobody renamed
var genericTitles = map[string]bool{
	"":             true,
	"untitled zap": true,
	"untitled":     true,
	"my zap":       true,
}

// DisplayName substitutes a readable name for blank or placeholder titles
func DisplayName(id, title string) string {
	if genericTitles[strings.ToLower(strings.TrimSpace(title))] {
		return "Zap " + id
	}
	return title
}

// Summarize builds the report for a result
func Summarize(result *models.AuditResult) *Report {
	g := result.GlobalMetrics
	p := result.Metadata.PricingAssumptions
	report := &Report{
		GeneratedAt:    result.Metadata.GeneratedAt,
		Plan:           p.PlanTier,
		TierCapacity:   p.TierCapacity,
		TierPrice:      p.TierPriceUSD,
		UsageSource:    p.UsageSource,
		TotalZaps:      g.TotalZaps,
		ActiveZaps:     g.ActiveZaps,
		ZombieCount:    g.ZombieZapCount,
		FlagCount:      g.FlagCount,
		MonthlySavings: g.EstimatedMonthlyWasteUSD,
		AnnualSavings:  g.EstimatedAnnualWasteUSD,
		AverageScore:   g.AverageEfficiencyScore,
		Patterns:       result.CrossZapPatterns,
		PlanAnalysis:   result.PlanAnalysis,
		Warnings:       result.Metadata.Warnings,
	}

	type key struct {
		id   string
		code models.FlagCode
	}
	flags := map[key]models.EfficiencyFlag{}
	names := map[string]string{}
	for _, f := range result.Findings {
		names[f.ZapID] = DisplayName(f.ZapID, f.ZapName)
		for _, flag := range f.Flags {
			flags[key{f.ZapID, flag.Code}] = flag
		}
	}

	for _, o := range result.Opportunities {
		flag := flags[key{o.ZapID, o.FlagCode}]
		report.Opportunities = append(report.Opportunities, Opportunity{
			Rank:           o.Rank,
			ZapID:          o.ZapID,
			ZapName:        names[o.ZapID],
			Code:           o.FlagCode,
			Severity:       flag.Severity,
			Confidence:     o.Confidence,
			Message:        flag.Message,
			MonthlySavings: o.MonthlySavingsUSD,
			EffortHours:    flag.Implementation.EffortHours,
		})
	}

	calculateStats(report, result.Findings)
	return report
}

// calculateStats groups flags by code, largest savings first
func calculateStats(report *Report, findings []models.ZapFinding) {
	byCode := map[models.FlagCode]*FlagStats{}
	for _, f := range findings {
		for _, flag := range f.Flags {
			stat, ok := byCode[flag.Code]
			if !ok {
				stat = &FlagStats{Code: flag.Code}
				byCode[flag.Code] = stat
			}
			stat.Count++
			stat.MonthlySavings += flag.Impact.MonthlySavingsUSD
			if flag.Severity == models.SeverityHigh {
				stat.HighSeverity++
			}
		}
	}

	for _, code := range models.FlagCodes {
		if stat, ok := byCode[code]; ok {
			report.FlagStats = append(report.FlagStats, stat)
		}
	}
	sort.SliceStable(report.FlagStats, func(i, j int) bool {
		return report.FlagStats[i].MonthlySavings > report.FlagStats[j].MonthlySavings
	})
}
