package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	_, ok := Median(nil)
	assert.False(t, ok)

	m, ok := Median([]float64{5, 1, 3})
	assert.True(t, ok)
	assert.Equal(t, 3.0, m)

	m, _ = Median([]float64{4, 1, 3, 2})
	assert.Equal(t, 2.5, m)
}

func TestPercentileDoesNotReorderInput(t *testing.T) {
	values := []float64{9, 1, 5}
	p, _ := Percentile(values, 100)
	assert.Equal(t, 9.0, p)
	assert.Equal(t, []float64{9, 1, 5}, values)
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 2.0, Average([]float64{1, 2, 3}))
}
