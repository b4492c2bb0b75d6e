// Package pricing resolves the billing tier and per-task cost for an audit run.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// ErrUnknownPlan is returned for plan names outside the supported families
var ErrUnknownPlan = errors.New("unknown plan")

// Benchmark tier used when no usage figure is available
const (
	BenchmarkPlan  = models.PlanProfessional
	BenchmarkUsage = 2_000
)

// ParsePlan maps a plan name onto a family. An empty name selects the benchmark plan.
func ParsePlan(name string) (models.PlanFamily, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return BenchmarkPlan, nil
	case "professional", "pro":
		return models.PlanProfessional, nil
	case "team":
		return models.PlanTeam, nil
	}
	return "", fmt.Errorf("%w: %q (expected professional or team)", ErrUnknownPlan, name)
}

// Resolver applies the ceiling tier rule over a provider's tables
type Resolver struct {
	provider Provider
}

func NewResolver(provider Provider) *Resolver {
	if provider == nil {
		provider = NewDefaultProvider()
	}
	return &Resolver{provider: provider}
}

// Resolve selects the cheapest tier whose capacity is not exceeded by usage.
// Usage above every tier selects the largest tier and reports OverCapacity.
func (r *Resolver) Resolve(plan models.PlanFamily, usage int) (models.PricingResult, error) {
	tiers, err := r.provider.Tiers(plan)
	if err != nil {
		return models.PricingResult{}, err
	}
	if len(tiers) == 0 {
		return models.PricingResult{}, fmt.Errorf("no tiers for plan %s", plan)
	}
	if usage < 0 {
		usage = 0
	}

	selected := len(tiers) - 1
	over := true
	for i, tier := range tiers {
		if tier.Capacity >= usage {
			selected = i
			over = false
			break
		}
	}

	tier := tiers[selected]
	result := models.PricingResult{
		Plan:         plan,
		TierCapacity: tier.Capacity,
		TierPrice:    tier.Price,
		Usage:        usage,
		OverCapacity: over,
	}
	if tier.Capacity > 0 {
		result.CostPerTask = tier.Price / float64(tier.Capacity)
	}
	if selected > 0 {
		result.PreviousCapacity = tiers[selected-1].Capacity
	}
	return result, nil
}

// ResolveUsage picks the usage figure (declared, then measured, then benchmark) and resolves it
func (r *Resolver) ResolveUsage(plan models.PlanFamily, declared *int, measured int64, hasMeasured bool) (models.PricingResult, error) {
	usage, source := BenchmarkUsage, models.UsageBenchmark
	switch {
	case declared != nil:
		usage, source = *declared, models.UsageDeclared
	case hasMeasured && measured > 0:
		usage, source = ClampUsage(measured), models.UsageMeasured
	}

	result, err := r.Resolve(plan, usage)
	if err != nil {
		return models.PricingResult{}, err
	}
	result.UsageSource = source
	return result, nil
}

// ClampUsage converts a task count to int, saturating on overflow
func ClampUsage(v int64) int {
	const maxInt = int64(^uint(0) >> 1)
	if v > maxInt {
		return int(maxInt)
	}
	return int(v)
}

// Resolve uses the published tables
func Resolve(plan models.PlanFamily, usage int) (models.PricingResult, error) {
	return NewResolver(nil).Resolve(plan, usage)
}

// Benchmark is the fallback pricing when nothing about usage is known
func Benchmark() models.PricingResult {
	result, _ := Resolve(BenchmarkPlan, BenchmarkUsage)
	result.UsageSource = models.UsageBenchmark
	return result
}

// ValidateTiers checks a table is non-empty, strictly ascending by capacity and positively priced
func ValidateTiers(tiers []models.Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("empty tier table")
	}
	for i, tier := range tiers {
		if tier.Capacity <= 0 {
			return fmt.Errorf("tier %d: capacity must be positive", i)
		}
		if tier.Price <= 0 {
			return fmt.Errorf("tier %d: price must be positive", i)
		}
		if i > 0 && tier.Capacity <= tiers[i-1].Capacity {
			return fmt.Errorf("tier %d: capacity %d is not above %d", i, tier.Capacity, tiers[i-1].Capacity)
		}
	}
	return nil
}
