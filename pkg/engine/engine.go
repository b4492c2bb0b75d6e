// Package engine runs one audit: normalize the archive, aggregate history, resolve pricing,
// detect patterns and assemble the validated result.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opscart/zap-lighthouse/pkg/analyzer"
	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/audit"
	"github.com/opscart/zap-lighthouse/pkg/detector"
	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/pricing"
	"github.com/opscart/zap-lighthouse/pkg/topology"
)

// ErrUnknownAutomation is returned when a selected id is not in the export
var ErrUnknownAutomation = errors.New("unknown automation")

// Params are the caller-supplied settings of one run
type Params struct {
	Plan          string
	DeclaredUsage *int
	SelectedIDs   []string
	Effort        detector.EffortTable
	TopN          int

	// Provider overrides the published tier tables
	Provider pricing.Provider
	Now      func() time.Time
	Logger   zerolog.Logger
}

// RoundTrip captures the parameters that determine a result
func (p Params) RoundTrip() models.RoundTrip {
	plan, err := pricing.ParsePlan(p.Plan)
	if err != nil {
		plan = models.PlanFamily(p.Plan)
	}
	rt := models.RoundTrip{Plan: plan, TopN: p.TopN}
	if p.DeclaredUsage != nil {
		usage := *p.DeclaredUsage
		rt.DeclaredUsage = &usage
	}
	if len(p.SelectedIDs) > 0 {
		rt.AnalyzedIDs = append([]string(nil), p.SelectedIDs...)
	}
	return rt
}

// ParamsFromRoundTrip rebuilds run parameters from a stored round trip
func ParamsFromRoundTrip(rt models.RoundTrip) Params {
	p := Params{Plan: string(rt.Plan), TopN: rt.TopN}
	if rt.DeclaredUsage != nil {
		usage := *rt.DeclaredUsage
		p.DeclaredUsage = &usage
	}
	if len(rt.AnalyzedIDs) > 0 {
		p.SelectedIDs = append([]string(nil), rt.AnalyzedIDs...)
	}
	return p
}

func (p Params) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p Params) effort() detector.EffortTable {
	if p.Effort.Hours == nil {
		return detector.DefaultEffort()
	}
	return p.Effort
}

// RunBytes audits a zip archive held in memory
func RunBytes(data []byte, p Params) (*models.AuditResult, error) {
	a, err := archive.OpenZip(data)
	if err != nil {
		return nil, err
	}
	return Run(a, p)
}

// Run audits one archive. It either returns a complete validated result or a single error.
func Run(a archive.Archive, p Params) (*models.AuditResult, error) {
	log := p.Logger
	if p.DeclaredUsage != nil && *p.DeclaredUsage < 0 {
		return nil, fmt.Errorf("declared usage must not be negative: %d", *p.DeclaredUsage)
	}
	plan, err := pricing.ParsePlan(p.Plan)
	if err != nil {
		return nil, err
	}

	bundle, err := archive.Normalize(a)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize archive: %w", err)
	}
	log.Debug().
		Str("document", bundle.DocumentName).
		Str("generation", bundle.Export.Generation).
		Int("automations", len(bundle.Export.Automations)).
		Int("tables", len(bundle.Tables)).
		Msg("archive normalized")

	history := analyzer.Aggregate(bundle.Tables)
	export := analyzer.Attach(bundle.Export, history)
	log.Debug().
		Bool("history", history.Present).
		Int("rows", history.Rows).
		Int("dropped_rows", history.DroppedRows).
		Msg("history aggregated")

	automations, mode, err := selectAutomations(export.Automations, p.SelectedIDs)
	if err != nil {
		return nil, err
	}

	topologies := make([]*topology.Topology, len(automations))
	for i := range automations {
		topologies[i] = topology.Build(automations[i].Steps)
		automations[i] = topologies[i].Apply(automations[i])
	}

	var measured int64
	for i := range automations {
		if tasks, ok := automations[i].MonthlyTasks(); ok {
			measured += tasks
		}
	}
	hasMeasured := history.Present

	resolver := pricing.NewResolver(p.Provider)
	priced, err := resolver.ResolveUsage(plan, p.DeclaredUsage, measured, hasMeasured)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pricing: %w", err)
	}
	log.Debug().
		Str("plan", string(priced.Plan)).
		Int("usage", priced.Usage).
		Str("usage_source", string(priced.UsageSource)).
		Int("tier_capacity", priced.TierCapacity).
		Float64("cost_per_task", priced.CostPerTask).
		Msg("pricing resolved")

	effort := p.effort()
	detectors := detector.New(effort)
	flags := make([][]models.EfficiencyFlag, len(automations))
	for i := range automations {
		flags[i] = detectors.Detect(detector.Input{
			Automation: &automations[i],
			Topology:   topologies[i],
			Pricing:    priced,
		})
	}

	in := audit.Input{
		Automations:         automations,
		Topologies:          topologies,
		Flags:               flags,
		Pricing:             priced,
		Measured:            measured,
		HasMeasured:         hasMeasured,
		HistoryPresent:      history.Present,
		Underutilization:    detector.DetectPlanUnderutilization(priced, measured, hasMeasured, effort),
		Mode:                mode,
		AnalyzedIDs:         ids(automations),
		SourceSchemaVersion: bundle.Export.SchemaVersion,
		Warnings:            runWarnings(bundle, history, export),
		GeneratedAt:         p.now(),
		TopN:                p.TopN,
	}
	if hasMeasured {
		recommended, err := resolver.Resolve(plan, pricing.ClampUsage(measured))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recommended tier: %w", err)
		}
		in.Recommended = &recommended
	}

	result, err := audit.Assemble(in)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("findings", len(result.Findings)).
		Int("opportunities", len(result.Opportunities)).
		Float64("monthly_waste_usd", result.GlobalMetrics.EstimatedMonthlyWasteUSD).
		Msg("audit assembled")
	return result, nil
}

// selectAutomations keeps the selected automations in export order
func selectAutomations(all []models.Automation, selected []string) ([]models.Automation, models.AnalysisMode, error) {
	if len(selected) == 0 {
		return all, models.AnalysisFull, nil
	}

	known := make(map[string]bool, len(all))
	for _, a := range all {
		known[a.ID] = true
	}
	wanted := make(map[string]bool, len(selected))
	var missing []string
	for _, id := range selected {
		id = strings.TrimSpace(id)
		if !known[id] {
			missing = append(missing, id)
			continue
		}
		wanted[id] = true
	}
	if len(missing) > 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownAutomation, strings.Join(missing, ", "))
	}

	out := make([]models.Automation, 0, len(wanted))
	for _, a := range all {
		if wanted[a.ID] {
			out = append(out, a)
		}
	}
	mode := models.AnalysisPartial
	if len(out) == len(all) {
		mode = models.AnalysisFull
	}
	return out, mode, nil
}

func ids(automations []models.Automation) []string {
	out := make([]string, len(automations))
	for i, a := range automations {
		out[i] = a.ID
	}
	return out
}

func runWarnings(bundle *archive.Bundle, history *analyzer.History, export *models.WorkflowExport) []string {
	warnings := []string{}
	warnings = append(warnings, bundle.Warnings...)
	warnings = append(warnings, history.Warnings...)
	if !history.Present {
		warnings = append(warnings, "no task history found; run-dependent findings use fallback assumptions")
	}
	if history.DroppedRows > 0 {
		warnings = append(warnings, fmt.Sprintf("dropped %d history rows without an automation id", history.DroppedRows))
	}
	if unmatched := history.Unmatched(export); len(unmatched) > 0 {
		warnings = append(warnings, fmt.Sprintf("history mentions %d automations missing from the export", len(unmatched)))
	}
	return warnings
}

// List summarizes the automations of an archive without auditing them
func List(a archive.Archive) ([]models.ZapSummary, error) {
	bundle, err := archive.Normalize(a)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize archive: %w", err)
	}
	export := analyzer.Attach(bundle.Export, analyzer.Aggregate(bundle.Tables))

	summaries := make([]models.ZapSummary, 0, len(export.Automations))
	for _, z := range export.Automations {
		z = topology.Build(z.Steps).Apply(z)
		s := models.ZapSummary{
			ID:        z.ID,
			Title:     z.Title,
			Status:    z.Status,
			StepCount: len(z.Steps),
		}
		if trigger := z.Trigger(); trigger != nil && trigger.App != "" {
			s.TriggerApp = archive.AppName(trigger.App)
		}
		if z.Usage != nil {
			s.TotalRuns = z.Usage.Total
			s.ErrorRate = z.Usage.ErrorRate
			s.LastRun = z.Usage.LastRun
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
