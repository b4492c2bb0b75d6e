package analyzer

import "github.com/opscart/zap-lighthouse/pkg/models"

// Trend thresholds on the ratio of second-half to first-half error rate
const (
	increasingRatio = 1.2
	decreasingRatio = 0.8
)

// ErrorTrend compares the error rates of two halves of a run sequence.
// It returns nil when either half is empty.
func ErrorTrend(firstErrors, firstRuns, secondErrors, secondRuns int) *models.Trend {
	if firstRuns == 0 || secondRuns == 0 {
		return nil
	}

	first := float64(firstErrors) / float64(firstRuns)
	second := float64(secondErrors) / float64(secondRuns)

	trend := models.TrendStable
	switch {
	case second > first*increasingRatio:
		trend = models.TrendIncreasing
	case second < first*decreasingRatio:
		trend = models.TrendDecreasing
	}
	return &trend
}
