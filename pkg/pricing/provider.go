package pricing

import "github.com/opscart/zap-lighthouse/pkg/models"

// Provider supplies the tier table for a plan family
type Provider interface {
	Tiers(plan models.PlanFamily) ([]models.Tier, error)
	Name() string
}

// Config selects the tier source. Tiers overrides the published tables per plan family.
type Config struct {
	Tiers map[string][]models.Tier
}
