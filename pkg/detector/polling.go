package detector

import (
	"fmt"
	"strings"

	"github.com/opscart/zap-lighthouse/pkg/archive"
	"github.com/opscart/zap-lighthouse/pkg/models"
)

// pollingApps trigger by checking a source on a schedule rather than on push
var pollingApps = []string{
	"RSS",
	"WordPress",
	"GoogleSheets",
	"GoogleForms",
	"Airtable",
	"Excel",
	"Dropbox",
	"GoogleDrive",
	"OneDrive",
	"MySQL",
	"PostgreSQL",
	"SQLServer",
	"MongoDB",
}

// IsPollingApp reports whether a selected_api identifier belongs to a known polling app
func IsPollingApp(selectedAPI string) bool {
	name := strings.ReplaceAll(archive.AppName(selectedAPI), " ", "")
	for _, app := range pollingApps {
		if strings.Contains(name, app) {
			return true
		}
	}
	return false
}

// DetectPollingTrigger flags triggers on polling apps. The overhead is never measured,
// so confidence tops out at Medium.
func DetectPollingTrigger(in Input) *models.EfficiencyFlag {
	trigger := in.Automation.Trigger()
	if trigger == nil || !IsPollingApp(trigger.App) {
		return nil
	}

	runs, realRuns := monthlyRuns(in.Automation)
	app := archive.AppName(trigger.App)
	return newFlag(in, models.FlagPollingTrigger, models.SeverityMedium, structuralConfidence(realRuns),
		runs*PollingOverhead,
		fmt.Sprintf("%s trigger polls on a schedule; an instant trigger avoids the overhead", app),
		map[string]any{
			"trigger_app":         app,
			"overhead_fraction":   PollingOverhead,
			"monthly_runs":        runs,
			"monthly_runs_source": source(realRuns),
		})
}
