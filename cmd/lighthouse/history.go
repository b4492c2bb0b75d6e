package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/converter"
	"github.com/opscart/zap-lighthouse/pkg/detector"
	"github.com/opscart/zap-lighthouse/pkg/engine"
	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/pricing"
)

var (
	stdout = os.Stdout
	stderr = os.Stderr

	// History command vars
	historyLimit int
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved audit runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a saved audit result",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <run-id> <export.zip|export-dir>",
		Short: "Re-run a saved audit with its original parameters",
		Args:  cobra.ExactArgs(2),
		RunE:  runReplay,
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No saved runs found")
		return nil
	}

	fmt.Fprintf(stdout, "Recent audit runs:\n\n")
	for i, run := range runs {
		fmt.Fprintf(stdout, "%d. %s (ID: %s)\n", i+1, run.Source, run.ID)
		fmt.Fprintf(stdout, "   Plan: %s", run.Plan)
		if run.DeclaredUsage != nil {
			fmt.Fprintf(stdout, " (declared %d tasks)", *run.DeclaredUsage)
		}
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "   Zaps: %d (%s), Flags: %d\n", run.TotalZaps, run.AnalysisMode, run.FlagCount)
		fmt.Fprintf(stdout, "   Waste: %s/mo\n", pricing.FormatUSD(run.MonthlyWasteUSD))
		fmt.Fprintf(stdout, "   Created: %s\n\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func loadRun(ctx context.Context, id string) (*models.AuditRun, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.GetRun(ctx, id)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	run, err := loadRun(ctx, args[0])
	if err != nil {
		return err
	}
	result, _, err := converter.FromRun(run)
	if err != nil {
		return err
	}
	return display(ctx, result)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	run, err := loadRun(ctx, args[0])
	if err != nil {
		return err
	}
	stored, rt, err := converter.FromRun(run)
	if err != nil {
		return err
	}

	a, err := archive.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	params := engine.ParamsFromRoundTrip(rt)
	params.Effort = detector.EffortFromMap(cfg.Analysis.EffortHours, cfg.Analysis.DefaultEffortHours)
	params.Provider = provider
	params.Logger = logger

	result, err := engine.Run(a, params)
	if err != nil {
		return err
	}

	same, err := sameResult(stored, result)
	if err != nil {
		return err
	}
	if same {
		logger.Info().Str("id", run.ID).Msg("Replay reproduced the saved result")
	} else {
		logger.Warn().Str("id", run.ID).Msg("Replay differs from the saved result (export or configuration changed)")
	}
	return display(ctx, result)
}

// sameResult compares two results ignoring their generation timestamps
func sameResult(a, b *models.AuditResult) (bool, error) {
	left, right := *a, *b
	left.Metadata.GeneratedAt, right.Metadata.GeneratedAt = "", ""
	lj, err := json.Marshal(left)
	if err != nil {
		return false, err
	}
	rj, err := json.Marshal(right)
	if err != nil {
		return false, err
	}
	return bytes.Equal(lj, rj), nil
}
