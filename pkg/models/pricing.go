package models

// PlanFamily is a billing plan line
type PlanFamily string

const (
	PlanProfessional PlanFamily = "professional"
	PlanTeam         PlanFamily = "team"
)

// UsageSource records where the usage figure used for tier resolution came from
type UsageSource string

const (
	UsageDeclared  UsageSource = "declared"
	UsageMeasured  UsageSource = "measured"
	UsageBenchmark UsageSource = "benchmark"
)

// Tier is one row of a plan's price table
type Tier struct {
	Capacity int     // monthly tasks
	Price    float64 // USD per month
}

// PricingResult is the tier resolved for one audit run
type PricingResult struct {
	Plan             PlanFamily
	TierCapacity     int
	TierPrice        float64
	CostPerTask      float64
	Usage            int
	UsageSource      UsageSource
	OverCapacity     bool
	PreviousCapacity int
}
