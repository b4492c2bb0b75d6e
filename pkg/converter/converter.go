// Package converter maps audit results to and from persisted runs.
package converter

import (
	"encoding/json"
	"fmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// ToRun packs a result and the parameters that produced it into a run record
func ToRun(result *models.AuditResult, rt models.RoundTrip, source string) (*models.AuditRun, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	run := &models.AuditRun{
		Source:          source,
		Plan:            rt.Plan,
		AnalyzedIDs:     rt.AnalyzedIDs,
		TopN:            rt.TopN,
		AnalysisMode:    result.Metadata.AnalysisMode,
		SchemaVersion:   result.SchemaVersion,
		TotalZaps:       result.GlobalMetrics.TotalZaps,
		FlagCount:       result.GlobalMetrics.FlagCount,
		MonthlyWasteUSD: result.GlobalMetrics.EstimatedMonthlyWasteUSD,
		ResultJSON:      body,
	}
	if rt.DeclaredUsage != nil {
		usage := *rt.DeclaredUsage
		run.DeclaredUsage = &usage
	}
	return run, nil
}

// RoundTrip returns the parameters needed to replay a run
func RoundTrip(run *models.AuditRun) models.RoundTrip {
	rt := models.RoundTrip{Plan: run.Plan, TopN: run.TopN}
	if run.DeclaredUsage != nil {
		usage := *run.DeclaredUsage
		rt.DeclaredUsage = &usage
	}
	if len(run.AnalyzedIDs) > 0 {
		rt.AnalyzedIDs = append([]string(nil), run.AnalyzedIDs...)
	}
	return rt
}

// FromRun decodes the stored result and its round-trip parameters
func FromRun(run *models.AuditRun) (*models.AuditResult, models.RoundTrip, error) {
	if len(run.ResultJSON) == 0 {
		return nil, models.RoundTrip{}, fmt.Errorf("run %s has no stored result", run.ID)
	}
	var result models.AuditResult
	if err := json.Unmarshal(run.ResultJSON, &result); err != nil {
		return nil, models.RoundTrip{}, fmt.Errorf("failed to decode result of run %s: %w", run.ID, err)
	}
	return &result, RoundTrip(run), nil
}
