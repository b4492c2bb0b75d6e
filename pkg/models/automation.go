package models

import "strings"

// StepRole is the position-derived role of a step
type StepRole string

const (
	RoleTrigger StepRole = "trigger"
	RoleAction  StepRole = "action"
)

// StepKind is the classified behaviour of a step
type StepKind string

const (
	KindTrigger   StepKind = "trigger"
	KindAction    StepKind = "action"
	KindFilter    StepKind = "filter"
	KindPath      StepKind = "path"
	KindTransform StepKind = "transform"
	KindCode      StepKind = "code"
	KindWebhook   StepKind = "webhook"
	KindDelay     StepKind = "delay"
)

// WorkflowExport is one decoded export document
type WorkflowExport struct {
	Automations []Automation

	// SchemaVersion is the version marker found in the document, if any
	SchemaVersion string
	// Generation names the field-naming generation the steps were read from
	Generation string
}

// Automation represents a single Zap
type Automation struct {
	ID      string
	Title   string
	Status  string
	Enabled bool
	Steps   []Step

	// Usage is nil when no execution history was supplied
	Usage *UsageStats
}

// Step represents one node of an automation
type Step struct {
	ID       string
	ParentID *string
	Role     StepRole
	Kind     StepKind

	App    string // selected_api, version suffix included
	Action string
	Title  string
	TypeOf string // read, write, filter...
	Paused bool
}

// IsRoot reports whether the step declares no parent
func (s Step) IsRoot() bool {
	return s.ParentID == nil
}

// CostBearing reports whether executing the step consumes a billable task
func (s Step) CostBearing() bool {
	if s.Role == RoleTrigger {
		return false
	}
	switch s.Kind {
	case KindAction, KindTransform, KindCode, KindWebhook:
		return true
	}
	return false
}

// EnabledStatus reports whether a raw status string means the automation is switched on
func EnabledStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "on", "enabled", "active":
		return true
	}
	return false
}

// Trigger returns the trigger step, or nil when the automation has none
func (a *Automation) Trigger() *Step {
	for i := range a.Steps {
		if a.Steps[i].Role == RoleTrigger {
			return &a.Steps[i]
		}
	}
	return nil
}

// HasHistory reports whether usage evidence exists with at least one run
func (a *Automation) HasHistory() bool {
	return a.Usage != nil && a.Usage.Total > 0
}

// BillableSteps counts the steps that consume a task on every run
func (a *Automation) BillableSteps() int {
	n := 0
	for _, s := range a.Steps {
		if s.CostBearing() {
			n++
		}
	}
	return n
}

// MonthlyTasks estimates billed tasks for the history window. The second value is false without history.
func (a *Automation) MonthlyTasks() (int64, bool) {
	if a.Usage == nil {
		return 0, false
	}
	return int64(a.Usage.Total) * int64(a.BillableSteps()), true
}
