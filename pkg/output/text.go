package output

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/reporter"
)

// TextHandler prints human-readable output
type TextHandler struct {
	w io.Writer
}

func (h *TextHandler) Format() string { return "text" }

func (h *TextHandler) DisplayResult(ctx context.Context, result *models.AuditResult) error {
	return reporter.WriteText(reporter.Summarize(result), h.w)
}

func (h *TextHandler) DisplayList(ctx context.Context, zaps []models.ZapSummary) error {
	if len(zaps) == 0 {
		_, err := fmt.Fprintln(h.w, "[INFO] No zaps found in export")
		return err
	}

	tw := tabwriter.NewWriter(h.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tSTEPS\tTRIGGER\tRUNS\tERROR RATE\tLAST RUN")
	for _, z := range zaps {
		errorRate := "-"
		if z.ErrorRate != nil {
			errorRate = fmt.Sprintf("%.1f%%", *z.ErrorRate)
		}
		lastRun := z.LastRun
		if lastRun == "" {
			lastRun = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%s\t%s\n",
			z.ID, reporter.DisplayName(z.ID, z.Title), z.Status, z.StepCount, z.TriggerApp, z.TotalRuns, errorRate, lastRun)
	}
	return tw.Flush()
}
