package reporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

func money(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// WriteCSV writes ranked opportunities followed by summary rows
func WriteCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{
		"Rank",
		"Zap ID",
		"Zap",
		"Flag",
		"Severity",
		"Confidence",
		"Monthly Savings ($)",
		"Effort (h)",
		"Reason",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, o := range report.Opportunities {
		row := []string{
			fmt.Sprintf("%d", o.Rank),
			o.ZapID,
			o.ZapName,
			string(o.Code),
			string(o.Severity),
			string(o.Confidence),
			money(o.MonthlySavings),
			fmt.Sprintf("%.2f", o.EffortHours),
			o.Message,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	summary := [][]string{
		{},
		{"SUMMARY"},
		{"Total Zaps", fmt.Sprintf("%d", report.TotalZaps)},
		{"Active Zaps", fmt.Sprintf("%d", report.ActiveZaps)},
		{"Flags", fmt.Sprintf("%d", report.FlagCount)},
		{"Total Monthly Savings", "$" + money(report.MonthlySavings)},
		{"Total Annual Savings", "$" + money(report.AnnualSavings)},
		{},
		{"FLAG BREAKDOWN"},
		{"Flag", "Count", "High Severity", "Savings"},
	}
	for _, stat := range report.FlagStats {
		summary = append(summary, []string{
			string(stat.Code),
			fmt.Sprintf("%d", stat.Count),
			fmt.Sprintf("%d", stat.HighSeverity),
			"$" + money(stat.MonthlySavings),
		})
	}
	if err := w.WriteAll(summary); err != nil {
		return fmt.Errorf("failed to write CSV summary: %w", err)
	}
	return nil
}
