package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/reporter"
)

// CSVHandler writes spreadsheet-friendly rows
type CSVHandler struct {
	w io.Writer
}

func (h *CSVHandler) Format() string { return "csv" }

func (h *CSVHandler) DisplayResult(ctx context.Context, result *models.AuditResult) error {
	return reporter.WriteCSV(reporter.Summarize(result), h.w)
}

func (h *CSVHandler) DisplayList(ctx context.Context, zaps []models.ZapSummary) error {
	rows := [][]string{{"ID", "Title", "Status", "Steps", "Trigger", "Runs", "Error Rate", "Last Run"}}
	for _, z := range zaps {
		errorRate := ""
		if z.ErrorRate != nil {
			errorRate = fmt.Sprintf("%.2f", *z.ErrorRate)
		}
		rows = append(rows, []string{
			z.ID, z.Title, z.Status, fmt.Sprintf("%d", z.StepCount), z.TriggerApp,
			fmt.Sprintf("%d", z.TotalRuns), errorRate, z.LastRun,
		})
	}
	return csv.NewWriter(h.w).WriteAll(rows)
}
