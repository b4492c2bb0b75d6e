// Package metrics exports audit figures in the Prometheus exposition format.
package metrics

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

const namespace = "lighthouse"

// Recorder collects audit metrics on its own registry
type Recorder struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	zaps          *prometheus.GaugeVec
	flags         *prometheus.GaugeVec
	opportunities prometheus.Gauge
	waste         prometheus.Gauge
	planSavings   prometheus.Gauge
	duration      prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_runs_total",
			Help:      "Audit runs by outcome.",
		}, []string{"outcome"}),
		zaps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_zaps",
			Help:      "Zaps in the last audited export by state.",
		}, []string{"state"}),
		flags: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_flags",
			Help:      "Efficiency flags raised in the last audit by code.",
		}, []string{"code"}),
		opportunities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_opportunities",
			Help:      "Ranked opportunities in the last audit.",
		}),
		waste: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_monthly_waste_usd",
			Help:      "Estimated monthly waste in USD from the last audit.",
		}),
		planSavings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_plan_savings_usd",
			Help:      "Monthly savings from moving to the right-sized tier.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Wall time of audit runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	r.registry.MustRegister(r.runs, r.zaps, r.flags, r.opportunities, r.waste, r.planSavings, r.duration)
	return r
}

// Observe records a successful audit
func (r *Recorder) Observe(result *models.AuditResult, elapsed time.Duration) {
	r.runs.WithLabelValues("success").Inc()
	r.duration.Observe(elapsed.Seconds())

	g := result.GlobalMetrics
	r.zaps.WithLabelValues("total").Set(float64(g.TotalZaps))
	r.zaps.WithLabelValues("active").Set(float64(g.ActiveZaps))
	r.zaps.WithLabelValues("zombie").Set(float64(g.ZombieZapCount))
	r.zaps.WithLabelValues("with_history").Set(float64(g.AutomationsWithHistory))

	counts := map[models.FlagCode]int{}
	for _, f := range result.Findings {
		for _, flag := range f.Flags {
			counts[flag.Code]++
		}
	}
	for _, code := range models.FlagCodes {
		r.flags.WithLabelValues(string(code)).Set(float64(counts[code]))
	}

	r.opportunities.Set(float64(len(result.Opportunities)))
	r.waste.Set(g.EstimatedMonthlyWasteUSD)
	r.planSavings.Set(result.PlanAnalysis.PotentialMonthlySavingsUSD)
}

// ObserveFailure records an audit that returned an error
func (r *Recorder) ObserveFailure(elapsed time.Duration) {
	r.runs.WithLabelValues("failure").Inc()
	r.duration.Observe(elapsed.Seconds())
}

// Gatherer exposes the registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics for the node exporter textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Write prints the metrics in the text exposition format
func (r *Recorder) Write(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Push sends the metrics to a Pushgateway under the given job
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
