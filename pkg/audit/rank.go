package audit

import (
	"sort"
	"strconv"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// Rank flattens every automation's flags and orders them by monthly savings.
// Ties go to the lower automation id, then to detector order. A positive limit keeps the top entries.
func Rank(findings []models.ZapFinding, limit int) []models.RankedOpportunity {
	opportunities := []models.RankedOpportunity{}
	for _, f := range findings {
		for _, flag := range f.Flags {
			opportunities = append(opportunities, models.RankedOpportunity{
				ZapID:             f.ZapID,
				FlagCode:          flag.Code,
				MonthlySavingsUSD: flag.Impact.MonthlySavingsUSD,
				Confidence:        flag.Confidence,
			})
		}
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		a, b := opportunities[i], opportunities[j]
		if a.MonthlySavingsUSD != b.MonthlySavingsUSD {
			return a.MonthlySavingsUSD > b.MonthlySavingsUSD
		}
		if c := CompareIDs(a.ZapID, b.ZapID); c != 0 {
			return c < 0
		}
		return codeOrder(a.FlagCode) < codeOrder(b.FlagCode)
	})

	if limit > 0 && len(opportunities) > limit {
		opportunities = opportunities[:limit]
	}
	for i := range opportunities {
		opportunities[i].Rank = i + 1
	}
	return opportunities
}

// CompareIDs orders numeric ids numerically and everything else lexically, numbers first
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func codeOrder(code models.FlagCode) int {
	for i, c := range models.FlagCodes {
		if c == code {
			return i
		}
	}
	return len(models.FlagCodes)
}
