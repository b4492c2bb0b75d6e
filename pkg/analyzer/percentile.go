package analyzer

import (
	"math"
	"sort"
)

// Median returns the 50th percentile of values, and false when values is empty
func Median(values []float64) (float64, bool) {
	return Percentile(values, 50)
}

// Percentile computes the Nth percentile using linear interpolation between ranks
func Percentile(values []float64, percentile float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return calculatePercentile(sorted, percentile), true
}

func calculatePercentile(sortedValues []float64, percentile float64) float64 {
	if len(sortedValues) == 1 {
		return sortedValues[0]
	}

	n := float64(len(sortedValues))
	rank := (percentile / 100.0) * (n - 1)

	lowerIndex := int(math.Floor(rank))
	upperIndex := int(math.Ceil(rank))
	if lowerIndex == upperIndex {
		return sortedValues[lowerIndex]
	}

	lowerValue := sortedValues[lowerIndex]
	upperValue := sortedValues[upperIndex]
	fraction := rank - float64(lowerIndex)

	return lowerValue + (upperValue-lowerValue)*fraction
}

// Average returns the arithmetic mean, 0 for no values
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
