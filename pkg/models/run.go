package models

import "time"

// AuditRun is one persisted audit: the parameters that reproduce it, headline figures and the full result
type AuditRun struct {
	ID              string
	CreatedAt       time.Time
	Source          string
	Plan            PlanFamily
	DeclaredUsage   *int
	AnalyzedIDs     []string
	TopN            int
	AnalysisMode    AnalysisMode
	SchemaVersion   string
	TotalZaps       int
	FlagCount       int
	MonthlyWasteUSD float64
	// ResultJSON is the AuditResult as emitted; empty in listings
	ResultJSON []byte
}
