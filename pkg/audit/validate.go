package audit

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// ErrInvariantViolation marks a result that failed its self-check. It always indicates a bug.
var ErrInvariantViolation = errors.New("audit result invariant violated")

// InvariantError lists every violated invariant
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariantViolation, strings.Join(e.Violations, "; "))
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

type checker struct {
	violations []string
}

func (c *checker) failf(format string, args ...any) {
	c.violations = append(c.violations, fmt.Sprintf(format, args...))
}

func (c *checker) money(field string, v float64) {
	switch {
	case math.IsNaN(v):
		c.failf("%s is NaN", field)
	case math.IsInf(v, 0):
		c.failf("%s is infinite", field)
	case v < 0:
		c.failf("%s is negative (%v)", field, v)
	}
}

// Validate checks a result before it is handed out. Nothing is corrected.
func Validate(r *models.AuditResult) error {
	if r == nil {
		return &InvariantError{Violations: []string{"result is nil"}}
	}
	c := &checker{}

	if r.SchemaVersion == "" {
		c.failf("schema version missing")
	}
	if len(r.Findings) != r.GlobalMetrics.TotalZaps {
		c.failf("%d findings for %d zaps", len(r.Findings), r.GlobalMetrics.TotalZaps)
	}
	if len(r.Findings) != len(r.Metadata.AnalyzedZapIDs) {
		c.failf("%d findings for %d analyzed ids", len(r.Findings), len(r.Metadata.AnalyzedZapIDs))
	} else {
		for i, f := range r.Findings {
			if f.ZapID != r.Metadata.AnalyzedZapIDs[i] {
				c.failf("finding %d is zap %s, analyzed id is %s", i, f.ZapID, r.Metadata.AnalyzedZapIDs[i])
			}
		}
	}

	g := r.GlobalMetrics
	c.money("global_metrics.estimated_monthly_waste_tasks", g.EstimatedMonthlyWasteTasks)
	c.money("global_metrics.estimated_monthly_waste_usd", g.EstimatedMonthlyWasteUSD)
	c.money("global_metrics.estimated_annual_waste_usd", g.EstimatedAnnualWasteUSD)
	c.money("global_metrics.average_efficiency_score", g.AverageEfficiencyScore)
	if g.TotalMonthlyTasks < 0 {
		c.failf("global_metrics.total_monthly_tasks is negative")
	}

	p := r.Metadata.PricingAssumptions
	c.money("pricing_assumptions.tier_price_usd", p.TierPriceUSD)
	c.money("pricing_assumptions.task_price_usd", p.TaskPriceUSD)

	for _, f := range r.Findings {
		if f.Confidence.Rank() == 0 {
			c.failf("zap %s: confidence %q", f.ZapID, f.Confidence)
		}
		if f.Metrics.MonthlyTasks != nil && *f.Metrics.MonthlyTasks < 0 {
			c.failf("zap %s: monthly tasks negative", f.ZapID)
		}
		c.money(fmt.Sprintf("zap %s task_step_ratio", f.ZapID), f.Metrics.TaskStepRatio)
		for _, flag := range f.Flags {
			prefix := fmt.Sprintf("zap %s %s", f.ZapID, flag.Code)
			if !flag.Code.Valid() {
				c.failf("%s: unknown flag code", prefix)
			}
			c.money(prefix+" monthly savings", flag.Impact.MonthlySavingsUSD)
			c.money(prefix+" annual savings", flag.Impact.AnnualSavingsUSD)
			c.money(prefix+" wasted tasks", flag.Impact.MonthlyWastedTasks)
			c.money(prefix+" effort", flag.Implementation.EffortHours)
		}
	}

	for i, o := range r.Opportunities {
		if o.Rank != i+1 {
			c.failf("opportunity %d has rank %d", i, o.Rank)
		}
		c.money(fmt.Sprintf("opportunity %d savings", o.Rank), o.MonthlySavingsUSD)
	}

	pa := r.PlanAnalysis
	c.money("plan_analysis.usage_percentile", pa.UsagePercentile)
	c.money("plan_analysis.potential_monthly_savings_usd", pa.PotentialMonthlySavingsUSD)
	for _, pf := range r.CrossZapPatterns {
		c.money(string(pf.PatternType)+" pattern waste usd", pf.TotalWasteUSD)
		c.money(string(pf.PatternType)+" pattern waste tasks", pf.TotalWasteTasks)
	}

	if len(c.violations) > 0 {
		return &InvariantError{Violations: c.violations}
	}
	return nil
}
