package pricing

import (
	"fmt"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

var professionalTiers = []models.Tier{
	{Capacity: 750, Price: 19.99},
	{Capacity: 1_500, Price: 39},
	{Capacity: 2_000, Price: 49},
	{Capacity: 5_000, Price: 89},
	{Capacity: 10_000, Price: 129},
	{Capacity: 20_000, Price: 189},
	{Capacity: 50_000, Price: 289},
	{Capacity: 100_000, Price: 489},
	{Capacity: 200_000, Price: 769},
	{Capacity: 300_000, Price: 1_069},
	{Capacity: 400_000, Price: 1_269},
	{Capacity: 500_000, Price: 1_499},
	{Capacity: 750_000, Price: 1_999},
	{Capacity: 1_000_000, Price: 2_199},
	{Capacity: 1_500_000, Price: 2_999},
	{Capacity: 1_750_000, Price: 3_199},
	{Capacity: 2_000_000, Price: 3_389},
}

var teamTiers = []models.Tier{
	{Capacity: 2_000, Price: 69},
	{Capacity: 5_000, Price: 119},
	{Capacity: 10_000, Price: 169},
	{Capacity: 20_000, Price: 249},
	{Capacity: 50_000, Price: 399},
	{Capacity: 100_000, Price: 599},
	{Capacity: 200_000, Price: 999},
	{Capacity: 300_000, Price: 1_199},
	{Capacity: 400_000, Price: 1_399},
	{Capacity: 500_000, Price: 1_799},
	{Capacity: 750_000, Price: 2_199},
	{Capacity: 1_000_000, Price: 2_499},
	{Capacity: 1_500_000, Price: 3_399},
	{Capacity: 1_750_000, Price: 3_799},
	{Capacity: 2_000_000, Price: 3_999},
}

// DefaultProvider serves the published monthly tier tables
type DefaultProvider struct{}

func NewDefaultProvider() *DefaultProvider {
	return &DefaultProvider{}
}

func (d *DefaultProvider) Name() string {
	return "default"
}

func (d *DefaultProvider) Tiers(plan models.PlanFamily) ([]models.Tier, error) {
	switch plan {
	case models.PlanProfessional:
		return cloneTiers(professionalTiers), nil
	case models.PlanTeam:
		return cloneTiers(teamTiers), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, plan)
}

func cloneTiers(tiers []models.Tier) []models.Tier {
	out := make([]models.Tier, len(tiers))
	copy(out, tiers)
	return out
}

// TableProvider serves tier tables supplied through configuration
type TableProvider struct {
	tables map[models.PlanFamily][]models.Tier
}

// NewTableProvider validates and wraps custom tier tables
func NewTableProvider(tables map[string][]models.Tier) (*TableProvider, error) {
	p := &TableProvider{tables: map[models.PlanFamily][]models.Tier{}}
	for name, tiers := range tables {
		plan, err := ParsePlan(name)
		if err != nil {
			return nil, err
		}
		if err := ValidateTiers(tiers); err != nil {
			return nil, fmt.Errorf("%s tiers: %w", plan, err)
		}
		p.tables[plan] = cloneTiers(tiers)
	}
	return p, nil
}

func (p *TableProvider) Name() string {
	return "config"
}

func (p *TableProvider) Tiers(plan models.PlanFamily) ([]models.Tier, error) {
	if tiers, ok := p.tables[plan]; ok {
		return cloneTiers(tiers), nil
	}
	return NewDefaultProvider().Tiers(plan)
}
