package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/converter"
	"github.com/opscart/zap-lighthouse/pkg/detector"
	"github.com/opscart/zap-lighthouse/pkg/engine"
	"github.com/opscart/zap-lighthouse/pkg/metrics"
	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/output"
)

var (
	// Scan flags
	plan         string
	usage        int
	zapIDs       []string
	topN         int
	saveResults  bool
	metricsFile  string
	pushgateway  string
	printMetrics bool
	parallel     int
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <export.zip|export-dir>...",
		Short: "Audit one or more Zapier exports",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScan,
	}
	cmd.Flags().StringVar(&plan, "plan", "", "Plan family: professional, team (default from config)")
	cmd.Flags().IntVar(&usage, "usage", 0, "Declared monthly task usage (overrides measured usage)")
	cmd.Flags().StringSliceVar(&zapIDs, "zap", nil, "Audit only these zap ids (repeatable)")
	cmd.Flags().IntVar(&topN, "top", 0, "Keep only the top N ranked opportunities (0 = all)")
	cmd.Flags().BoolVar(&saveResults, "save", false, "Save the run to the history database")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&pushgateway, "pushgateway", "", "Push metrics to this Pushgateway URL")
	cmd.Flags().BoolVar(&printMetrics, "print-metrics", false, "Print Prometheus metrics to stderr after the scan")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Number of exports audited concurrently")
	return cmd
}

// scanParams merges flags over the loaded configuration
func scanParams(cmd *cobra.Command) engine.Params {
	params := engine.Params{
		Plan:        cfg.Plan.Family,
		SelectedIDs: zapIDs,
		Effort:      detector.EffortFromMap(cfg.Analysis.EffortHours, cfg.Analysis.DefaultEffortHours),
		TopN:        cfg.Analysis.TopN,
		Provider:    provider,
		Logger:      logger,
	}
	if cfg.Plan.DeclaredUsage != nil {
		declared := *cfg.Plan.DeclaredUsage
		params.DeclaredUsage = &declared
	}
	if cmd.Flags().Changed("plan") {
		params.Plan = plan
	}
	if cmd.Flags().Changed("usage") {
		declared := usage
		params.DeclaredUsage = &declared
	}
	if cmd.Flags().Changed("top") {
		params.TopN = topN
	}
	return params
}

type scanOutcome struct {
	source  string
	result  *models.AuditResult
	elapsed time.Duration
}

// auditAll runs one engine call per export, at most limit at a time. Outcomes keep argument order.
func auditAll(ctx context.Context, sources []string, params engine.Params, limit int) ([]scanOutcome, error) {
	if limit < 1 {
		limit = 1
	}
	outcomes := make([]scanOutcome, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, source := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := archive.Open(source)
			if err != nil {
				return fmt.Errorf("failed to open export %s: %w", source, err)
			}
			p := params
			p.Logger = params.Logger.With().Str("source", source).Logger()

			started := time.Now()
			result, err := engine.Run(a, p)
			if err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}
			outcomes[i] = scanOutcome{source: source, result: result, elapsed: time.Since(started)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger.Info().Strs("sources", args).Int("parallel", parallel).Msg("Zap Lighthouse - starting scan")

	params := scanParams(cmd)
	recorder := metrics.NewRecorder()
	started := time.Now()
	outcomes, err := auditAll(ctx, args, params, parallel)
	if err != nil {
		return scanFailed(ctx, recorder, time.Since(started), err)
	}

	for _, o := range outcomes {
		recorder.Observe(o.result, o.elapsed)
		logger.Info().
			Str("source", o.source).
			Int("zaps", o.result.GlobalMetrics.TotalZaps).
			Int("flags", o.result.GlobalMetrics.FlagCount).
			Str("plan", string(o.result.Metadata.PricingAssumptions.PlanTier)).
			Int("tier", o.result.Metadata.PricingAssumptions.TierCapacity).
			Dur("elapsed", o.elapsed).
			Msg("Scan complete")

		if saveResults || cfg.Storage.Enabled {
			if err := saveRun(ctx, o.result, params.RoundTrip(), o.source); err != nil {
				logger.Warn().Err(err).Str("source", o.source).Msg("Failed to save run")
			}
		}
		if err := display(ctx, o.result); err != nil {
			return err
		}
	}
	return exportMetrics(ctx, recorder)
}

// scanFailed records a failed scan. Metrics export problems are logged and the scan error is returned.
func scanFailed(ctx context.Context, recorder *metrics.Recorder, elapsed time.Duration, err error) error {
	recorder.ObserveFailure(elapsed)
	if mErr := exportMetrics(ctx, recorder); mErr != nil {
		logger.Warn().Err(mErr).Msg("Failed to export metrics")
	}
	return err
}

func saveRun(ctx context.Context, result *models.AuditResult, rt models.RoundTrip, source string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := converter.ToRun(result, rt, filepath.Base(source))
	if err != nil {
		return err
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	logger.Info().Str("id", run.ID).Msg("Saved run")
	return nil
}

func display(ctx context.Context, result *models.AuditResult) error {
	handler, err := output.NewHandler(cfg.Output.Format, stdout)
	if err != nil {
		return err
	}
	return handler.DisplayResult(ctx, result)
}

func exportMetrics(ctx context.Context, recorder *metrics.Recorder) error {
	path := metricsFile
	if path == "" {
		path = cfg.Metrics.Textfile
	}
	if path != "" {
		if err := recorder.WriteTextfile(path); err != nil {
			return err
		}
		logger.Debug().Str("path", path).Msg("Metrics written")
	}
	if pushgateway != "" {
		if err := recorder.Push(ctx, pushgateway, "lighthouse"); err != nil {
			return err
		}
	}
	if printMetrics {
		return recorder.Write(stderr)
	}
	return nil
}
