package audit

import (
	"sort"
	"strings"

	"github.com/opscart/zap-lighthouse/pkg/analyzer"
	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/models"
)

// PatternThreshold is the number of automations sharing a flag before it counts as a pattern
const PatternThreshold = 3

type guidance struct {
	name   string
	advice string
}

var patternGuidance = map[models.FlagCode]guidance{
	models.FlagPollingTrigger: {"Polling Trigger Overuse",
		"Switch to instant webhook triggers where possible to reduce polling overhead"},
	models.FlagLateFilter: {"Late Filter Placement",
		"Move filters immediately after the trigger so rejected items stop before billable steps"},
	models.FlagErrorLoop: {"Widespread Error Loops",
		"Review authentication, fix configuration issues and add error handling"},
	models.FlagFormatterChain: {"Formatter Chain Explosion",
		"Consolidate consecutive formatter steps into one Code step or a shared sub-Zap"},
	models.FlagInterleavedTransforms: {"Scattered Transformations",
		"Group data transformations at the start of each Zap"},
	models.FlagTaskStepInflation: {"Task Step Inflation",
		"Split oversized Zaps or batch their actions"},
	models.FlagZombieZap: {"Zombie Zap Sprawl",
		"Turn off or delete Zaps that no longer run"},
}

// CrossZapPatterns groups flags by code and keeps codes seen on at least PatternThreshold automations,
// most impactful first
func CrossZapPatterns(findings []models.ZapFinding) []models.PatternFinding {
	groups := map[models.FlagCode][]int{}
	for i, f := range findings {
		for _, flag := range f.Flags {
			groups[flag.Code] = append(groups[flag.Code], i)
		}
	}

	patterns := []models.PatternFinding{}
	for _, code := range models.FlagCodes {
		members := groups[code]
		if len(members) < PatternThreshold {
			continue
		}

		g, ok := patternGuidance[code]
		if !ok {
			g = guidance{string(code) + " Pattern", "Review and optimize the affected Zaps"}
		}
		p := models.PatternFinding{
			PatternType:      code,
			PatternName:      g.name,
			AffectedZapIDs:   make([]string, 0, len(members)),
			RefactorGuidance: g.advice,
			Severity:         patternSeverity(len(members)),
		}

		var chainLengths []float64
		for _, idx := range members {
			f := findings[idx]
			p.AffectedZapIDs = append(p.AffectedZapIDs, f.ZapID)
			for _, flag := range f.Flags {
				if flag.Code != code {
					continue
				}
				p.TotalWasteTasks += flag.Impact.MonthlyWastedTasks
				p.TotalWasteUSD += flag.Impact.MonthlySavingsUSD
				if n, ok := flag.Meta["chain_length"].(int); ok {
					chainLengths = append(chainLengths, float64(n))
				}
			}
		}
		p.AffectedCount = len(p.AffectedZapIDs)
		if code == models.FlagFormatterChain {
			if median, ok := analyzer.Median(chainLengths); ok {
				p.MedianChainLength = &median
			}
		}
		patterns = append(patterns, p)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return float64(patterns[i].AffectedCount)*patterns[i].TotalWasteUSD >
			float64(patterns[j].AffectedCount)*patterns[j].TotalWasteUSD
	})
	return patterns
}

func patternSeverity(affected int) models.Severity {
	switch {
	case affected >= 8:
		return models.SeverityHigh
	case affected >= 5:
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// PremiumFeatures reports which plan-gated step kinds appear anywhere in the automations
func PremiumFeatures(automations []models.Automation) models.PremiumFeatures {
	var pf models.PremiumFeatures
	for _, a := range automations {
		for _, s := range a.Steps {
			app := strings.ToLower(s.App)
			switch {
			case s.Kind == models.KindPath:
				pf.Paths = true
			case s.Kind == models.KindFilter:
				pf.Filters = true
			case s.Kind == models.KindCode:
				pf.CustomLogic = true
			}
			if s.Kind == models.KindWebhook || strings.Contains(app, "webhook") {
				pf.Webhooks = true
			}
		}
	}
	return pf
}

// AppInventory counts the automations using each app, most used first
func AppInventory(automations []models.Automation) []models.AppUsage {
	counts := map[string]int{}
	for _, a := range automations {
		seen := map[string]bool{}
		for _, s := range a.Steps {
			if s.App == "" {
				continue
			}
			name := archive.AppName(s.App)
			if seen[name] {
				continue
			}
			seen[name] = true
			counts[name]++
		}
	}

	apps := make([]models.AppUsage, 0, len(counts))
	for name, n := range counts {
		apps = append(apps, models.AppUsage{App: name, ZapCount: n})
	}
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].ZapCount != apps[j].ZapCount {
			return apps[i].ZapCount > apps[j].ZapCount
		}
		return apps[i].App < apps[j].App
	})
	return apps
}
