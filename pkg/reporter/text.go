package reporter

import (
	"fmt"
	"io"

	"github.com/opscart/zap-lighthouse/pkg/pricing"
)

// WriteText prints the human-readable audit summary
func WriteText(report *Report, w io.Writer) error {
	p := &printer{w: w}

	p.printf("=== Zap Efficiency Audit ===\n\n")
	p.printf("Plan: %s, %d tasks/month at %s (usage source: %s)\n",
		report.Plan, report.TierCapacity, pricing.FormatUSD(report.TierPrice), report.UsageSource)
	p.printf("Zaps: %d total, %d active, %d zombie\n", report.TotalZaps, report.ActiveZaps, report.ZombieCount)
	p.printf("Average efficiency score: %.0f/100\n\n", report.AverageScore)

	if len(report.Opportunities) == 0 {
		p.printf("[INFO] No optimization opportunities found\n")
	} else {
		p.printf("=== Optimization Opportunities ===\n\n")
		for _, o := range report.Opportunities {
			p.printf("%d. %s (ID: %s)\n", o.Rank, o.ZapName, o.ZapID)
			p.printf("   Flag: %s [%s severity, %s confidence]\n", o.Code, o.Severity, o.Confidence)
			if o.Message != "" {
				p.printf("   Reason: %s\n", o.Message)
			}
			p.printf("   Savings: %s/month\n", pricing.FormatUSD(o.MonthlySavings))
			p.printf("   Effort: %.2fh\n\n", o.EffortHours)
		}
	}

	if len(report.Patterns) > 0 {
		p.printf("=== Cross-Zap Patterns ===\n\n")
		for _, pattern := range report.Patterns {
			p.printf("- %s: %d zaps, %s/month [%s]\n", pattern.PatternName, pattern.AffectedCount,
				pricing.FormatUSD(pattern.TotalWasteUSD), pattern.Severity)
			p.printf("  %s\n", pattern.RefactorGuidance)
		}
		p.printf("\n")
	}

	pa := report.PlanAnalysis
	p.printf("=== Plan Analysis ===\n\n")
	p.printf("Usage: %d of %d tasks (%.0f%%)\n", pa.MonthlyTaskUsage, pa.PlanTaskCapacity.Max, pa.UsagePercentile*100)
	if pa.OverCapacity {
		p.printf("[WARN] Usage exceeds the largest tier\n")
	}
	if pa.PotentialMonthlySavingsUSD > 0 {
		p.printf("Right-sized tier: %d tasks, saves %s/month\n",
			pa.RecommendedTierCapacity, pricing.FormatUSD(pa.PotentialMonthlySavingsUSD))
	}
	p.printf("Downgrade safe: %t\n\n", pa.DowngradeSafe)

	for _, warning := range report.Warnings {
		p.printf("[WARN] %s\n", warning)
	}

	p.printf("Total potential savings: %s/month (%s/year)\n",
		pricing.FormatUSD(report.MonthlySavings), pricing.FormatUSD(report.AnnualSavings))
	return p.err
}

// printer keeps the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
