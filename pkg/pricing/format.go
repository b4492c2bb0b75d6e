package pricing

import "github.com/shopspring/decimal"

// FormatUSD renders an amount rounded to cents, e.g. "$1234.50"
func FormatUSD(amount float64) string {
	return "$" + decimal.NewFromFloat(amount).StringFixed(2)
}

// MonthlyDelta returns current minus target price rounded to cents, never negative
func MonthlyDelta(current, target float64) float64 {
	delta := decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(target)).Round(2)
	if delta.IsNegative() {
		return 0
	}
	f, _ := delta.Float64()
	return f
}

// Annualize multiplies a monthly amount by twelve without accumulating float error
func Annualize(monthly float64) float64 {
	f, _ := decimal.NewFromFloat(monthly).Mul(decimal.NewFromInt(12)).Float64()
	return f
}
