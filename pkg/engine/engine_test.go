package engine

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/pricing"
)

const document = `{
  "metadata": {"version": "2"},
  "zaps": [
    {"id": 1, "title": "Sheets to Slack", "status": "on", "nodes": {
      "10": {"id": 10, "parent_id": null, "selected_api": "GoogleSheetsV2CLIAPI@2.5.0", "action": "new_row"},
      "11": {"id": 11, "parent_id": 10, "selected_api": "SlackCLIAPI@1.0.0", "action": "send_message"}
    }},
    {"id": 2, "title": "Forgotten", "status": "on", "nodes": {
      "20": {"id": 20, "parent_id": null, "selected_api": "WebHookCLIAPI", "action": "catch_hook"},
      "21": {"id": 21, "parent_id": 20, "selected_api": "GmailCLIAPI", "action": "send"}
    }},
    {"id": 3, "title": "Retired", "status": "off", "nodes": {
      "30": {"id": 30, "parent_id": null, "selected_api": "WebHookCLIAPI", "action": "catch_hook"},
      "31": {"id": 31, "parent_id": 30, "selected_api": "GmailCLIAPI", "action": "send"}
    }}
  ]
}`

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// history writes 100 runs for automation 1: 12 errors, AuthError x8 and Timeout x4
func history() string {
	var b strings.Builder
	b.WriteString("Zap ID,Status,Error Message,Timestamp\n")
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		status, msg := "success", ""
		switch {
		case i%8 == 0 && i < 64:
			status, msg = "error", "AuthError"
		case i%8 == 4 && i < 32:
			status, msg = "error", "Timeout"
		}
		fmt.Fprintf(&b, "1,%s,%s,%s\n", status, msg, start.Add(time.Duration(i)*time.Hour).Format(time.RFC3339))
	}
	return b.String()
}

func fixedParams() Params {
	return Params{Now: func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }}
}

func findFlag(f models.ZapFinding, code models.FlagCode) *models.EfficiencyFlag {
	for i := range f.Flags {
		if f.Flags[i].Code == code {
			return &f.Flags[i]
		}
	}
	return nil
}

func TestRunScenario(t *testing.T) {
	data := buildZip(t, map[string]string{
		"zapfile.json":     document,
		"task_history.csv": history(),
	})

	result, err := RunBytes(data, fixedParams())
	require.NoError(t, err)

	require.Len(t, result.Findings, 3)
	assert.Equal(t, 3, result.GlobalMetrics.TotalZaps)
	assert.True(t, result.Metadata.InputSources.TaskCSV)
	assert.Equal(t, "2", result.Metadata.SourceSchemaVersion)
	assert.Equal(t, "2026-04-01T12:00:00Z", result.Metadata.GeneratedAt)

	zap := result.Findings[0]
	require.NotNil(t, zap.Usage)
	assert.Equal(t, 100, zap.Usage.Total)
	assert.Equal(t, 12, zap.Usage.Errors)
	require.NotNil(t, zap.Usage.ErrorRate)
	assert.InDelta(t, 12.0, *zap.Usage.ErrorRate, 1e-9)
	assert.Equal(t, "AuthError", zap.Usage.MostCommonError)

	loop := findFlag(zap, models.FlagErrorLoop)
	require.NotNil(t, loop)
	assert.Equal(t, models.SeverityMedium, loop.Severity)
	assert.Equal(t, models.ConfidenceHigh, loop.Confidence)
	cpt := result.Metadata.PricingAssumptions.TaskPriceUSD
	assert.Equal(t, 12*cpt, loop.Impact.MonthlySavingsUSD)

	// usage is measured: 100 runs x 1 billable step
	p := result.Metadata.PricingAssumptions
	assert.Equal(t, models.UsageMeasured, p.UsageSource)
	assert.Equal(t, 100, p.Usage)
	assert.Equal(t, 750, p.TierCapacity)
	assert.Equal(t, p.TierPriceUSD/float64(p.TierCapacity), p.TaskPriceUSD)

	assert.NotNil(t, findFlag(result.Findings[1], models.FlagZombieZap))
	assert.True(t, result.Findings[1].IsZombie)
	assert.Nil(t, findFlag(result.Findings[2], models.FlagZombieZap))
	assert.Equal(t, 1, result.GlobalMetrics.ZombieZapCount)

	// zaps 2 and 3 have no rows in the supplied history
	assert.Empty(t, result.Findings[0].Warnings)
	for _, f := range result.Findings[1:] {
		require.Len(t, f.Warnings, 1, f.ZapID)
		assert.Equal(t, models.WarningIncompleteData, f.Warnings[0].Code)
	}

	for _, f := range result.Findings {
		for _, flag := range f.Flags {
			assert.False(t, math.IsNaN(flag.Impact.MonthlySavingsUSD))
			assert.GreaterOrEqual(t, flag.Impact.MonthlySavingsUSD, 0.0)
		}
	}
}

func TestRunWithoutHistory(t *testing.T) {
	data := buildZip(t, map[string]string{"zapfile.json": document})

	result, err := RunBytes(data, fixedParams())
	require.NoError(t, err)

	assert.False(t, result.Metadata.InputSources.TaskCSV)
	assert.Equal(t, models.UsageBenchmark, result.Metadata.PricingAssumptions.UsageSource)
	assert.Equal(t, 0, result.GlobalMetrics.ZombieZapCount)
	assert.Nil(t, result.PlanAnalysis.MeasuredTaskUsage)
	assert.Nil(t, result.PlanAnalysis.Underutilization)
	assert.NotEmpty(t, result.Metadata.Warnings)

	for _, f := range result.Findings {
		assert.Nil(t, f.Usage)
		assert.Equal(t, models.ConfidenceLow, f.Confidence)
		assert.Nil(t, findFlag(f, models.FlagErrorLoop))
		for _, flag := range f.Flags {
			assert.NotEqual(t, models.ConfidenceHigh, flag.Confidence)
		}
	}
}

func TestRunConfidenceMonotonic(t *testing.T) {
	without, err := RunBytes(buildZip(t, map[string]string{"zapfile.json": document}), fixedParams())
	require.NoError(t, err)
	with, err := RunBytes(buildZip(t, map[string]string{
		"zapfile.json":     document,
		"task_history.csv": history(),
	}), fixedParams())
	require.NoError(t, err)

	before := findFlag(without.Findings[0], models.FlagPollingTrigger)
	after := findFlag(with.Findings[0], models.FlagPollingTrigger)
	require.NotNil(t, before)
	require.NotNil(t, after)
	assert.GreaterOrEqual(t, after.Confidence.Rank(), before.Confidence.Rank())
}

func TestRunIdempotent(t *testing.T) {
	data := buildZip(t, map[string]string{
		"zapfile.json":     document,
		"task_history.csv": history(),
	})
	usage := 3_000
	params := Params{Plan: "team", DeclaredUsage: &usage}

	first, err := RunBytes(data, params)
	require.NoError(t, err)
	second, err := RunBytes(data, params)
	require.NoError(t, err)

	first.Metadata.GeneratedAt = ""
	second.Metadata.GeneratedAt = ""
	assert.Equal(t, first, second)
	assert.Equal(t, models.UsageDeclared, first.Metadata.PricingAssumptions.UsageSource)
	assert.Equal(t, 5_000, first.Metadata.PricingAssumptions.TierCapacity)
}

func TestRunEmptyExport(t *testing.T) {
	data := buildZip(t, map[string]string{"zaps.json": `{"zaps": []}`})
	result, err := RunBytes(data, fixedParams())
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, 0, result.GlobalMetrics.TotalZaps)
	assert.Empty(t, result.Opportunities)
}

func TestRunSelection(t *testing.T) {
	data := buildZip(t, map[string]string{"zapfile.json": document})

	params := fixedParams()
	params.SelectedIDs = []string{"3", "1"}
	result, err := RunBytes(data, params)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisPartial, result.Metadata.AnalysisMode)
	assert.Equal(t, []string{"1", "3"}, result.Metadata.AnalyzedZapIDs)
	assert.Len(t, result.Findings, 2)

	params.SelectedIDs = []string{"99"}
	_, err = RunBytes(data, params)
	assert.True(t, errors.Is(err, ErrUnknownAutomation))
}

func TestRunErrors(t *testing.T) {
	_, err := RunBytes([]byte("not a zip"), fixedParams())
	assert.True(t, errors.Is(err, archive.ErrMalformedArchive))

	_, err = RunBytes(buildZip(t, map[string]string{"readme.txt": "hi"}), fixedParams())
	assert.True(t, errors.Is(err, archive.ErrMalformedArchive))

	params := fixedParams()
	params.Plan = "enterprise"
	_, err = RunBytes(buildZip(t, map[string]string{"zapfile.json": document}), params)
	assert.True(t, errors.Is(err, pricing.ErrUnknownPlan))
}

func TestRoundTrip(t *testing.T) {
	usage := 1_200
	params := Params{Plan: "Pro", DeclaredUsage: &usage, SelectedIDs: []string{"1"}, TopN: 1}

	rt := params.RoundTrip()
	assert.Equal(t, models.PlanProfessional, rt.Plan)
	require.NotNil(t, rt.DeclaredUsage)
	assert.Equal(t, 1_200, *rt.DeclaredUsage)

	back := ParamsFromRoundTrip(rt)
	assert.Equal(t, "professional", back.Plan)
	assert.Equal(t, []string{"1"}, back.SelectedIDs)
	assert.Equal(t, 1, back.TopN)

	data := buildZip(t, map[string]string{"zapfile.json": document})
	first, err := RunBytes(data, params)
	require.NoError(t, err)
	second, err := RunBytes(data, back)
	require.NoError(t, err)
	first.Metadata.GeneratedAt, second.Metadata.GeneratedAt = "", ""
	assert.Equal(t, first, second)
}

func TestList(t *testing.T) {
	a, err := archive.OpenZip(buildZip(t, map[string]string{
		"zapfile.json":     document,
		"task_history.csv": history(),
	}))
	require.NoError(t, err)

	summaries, err := List(a)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "1", summaries[0].ID)
	assert.Equal(t, "Google Sheets V2", summaries[0].TriggerApp)
	assert.Equal(t, 2, summaries[0].StepCount)
	assert.Equal(t, 100, summaries[0].TotalRuns)
	assert.NotEmpty(t, summaries[0].LastRun)
	assert.Equal(t, 0, summaries[1].TotalRuns)
}
