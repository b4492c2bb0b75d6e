package reporter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

func sampleResult() *models.AuditResult {
	late := models.EfficiencyFlag{
		Code:           models.FlagLateFilter,
		Severity:       models.SeverityHigh,
		Confidence:     models.ConfidenceMedium,
		Message:        "Filter runs after 3 billable steps",
		Impact:         models.FlagImpact{MonthlySavingsUSD: 12.345},
		Implementation: models.FlagImplementation{EffortHours: 0.5},
	}
	polling := models.EfficiencyFlag{
		Code:       models.FlagPollingTrigger,
		Severity:   models.SeverityMedium,
		Confidence: models.ConfidenceLow,
		Impact:     models.FlagImpact{MonthlySavingsUSD: 2},
	}
	return &models.AuditResult{
		SchemaVersion: models.SchemaVersion,
		Metadata: models.AuditMetadata{
			GeneratedAt: "2026-01-01T00:00:00Z",
			PricingAssumptions: models.PricingAssumptions{
				PlanTier: models.PlanProfessional, TierCapacity: 2000, TierPriceUSD: 49,
				UsageSource: models.UsageBenchmark,
			},
			Warnings: []string{"no task history found"},
		},
		GlobalMetrics: models.GlobalMetrics{
			TotalZaps: 2, ActiveZaps: 2, FlagCount: 2,
			EstimatedMonthlyWasteUSD: 14.345, EstimatedAnnualWasteUSD: 172.14,
		},
		Findings: []models.ZapFinding{
			{ZapID: "1", ZapName: "Untitled Zap", Flags: []models.EfficiencyFlag{late}},
			{ZapID: "2", ZapName: "Leads to CRM", Flags: []models.EfficiencyFlag{polling}},
		},
		Opportunities: []models.RankedOpportunity{
			{ZapID: "1", FlagCode: models.FlagLateFilter, MonthlySavingsUSD: 12.345, Confidence: models.ConfidenceMedium, Rank: 1},
			{ZapID: "2", FlagCode: models.FlagPollingTrigger, MonthlySavingsUSD: 2, Confidence: models.ConfidenceLow, Rank: 2},
		},
		PlanAnalysis: models.PlanAnalysis{
			MonthlyTaskUsage: 2000, PlanTaskCapacity: models.PlanCapacity{Min: 1500, Max: 2000}, UsagePercentile: 1,
		},
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Zap 9", DisplayName("9", ""))
	assert.Equal(t, "Zap 9", DisplayName("9", " Untitled Zap "))
	assert.Equal(t, "Invoices", DisplayName("9", "Invoices"))
}

func TestSummarize(t *testing.T) {
	report := Summarize(sampleResult())

	require.Len(t, report.Opportunities, 2)
	first := report.Opportunities[0]
	assert.Equal(t, "Zap 1", first.ZapName)
	assert.Equal(t, models.SeverityHigh, first.Severity)
	assert.Equal(t, 0.5, first.EffortHours)
	assert.Equal(t, "Leads to CRM", report.Opportunities[1].ZapName)

	require.Len(t, report.FlagStats, 2)
	assert.Equal(t, models.FlagLateFilter, report.FlagStats[0].Code)
	assert.Equal(t, 1, report.FlagStats[0].HighSeverity)
	assert.Equal(t, 14.345, report.MonthlySavings)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(Summarize(sampleResult()), &buf))

	out := buf.String()
	assert.Contains(t, out, "1. Zap 1 (ID: 1)")
	assert.Contains(t, out, "LATE_FILTER")
	assert.Contains(t, out, "$12.35/month")
	assert.Contains(t, out, "[WARN] no task history found")
	assert.Contains(t, out, "Total potential savings: $14.35/month ($172.14/year)")
}

func TestWriteTextNoOpportunities(t *testing.T) {
	result := sampleResult()
	result.Opportunities = nil
	var buf bytes.Buffer
	require.NoError(t, WriteText(Summarize(result), &buf))
	assert.Contains(t, buf.String(), "No optimization opportunities found")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(Summarize(sampleResult()), &buf))

	r := csv.NewReader(strings.NewReader(buf.String()))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, "Rank", records[0][0])
	assert.Equal(t, []string{"1", "1", "Zap 1", "LATE_FILTER", "High", "Medium", "12.35", "0.50", "Filter runs after 3 billable steps"}, records[1])
	assert.Contains(t, buf.String(), "Total Monthly Savings,$14.35")
	assert.Contains(t, buf.String(), "POLLING_TRIGGER,1,0,$2.00")
}
