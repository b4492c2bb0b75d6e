package archive

import (
	"strings"
	"unicode"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

type kindRule struct {
	kind    models.StepKind
	apps    []string
	actions []string
}

// kindRules are evaluated in order against the lowercased app and action identifiers
var kindRules = []kindRule{
	{kind: models.KindFilter, apps: []string{"filter"}, actions: []string{"filter"}},
	{kind: models.KindPath, apps: []string{"branching", "paths"}, actions: []string{"path_", "branch"}},
	{kind: models.KindTransform, apps: []string{"formatter", "utilities", "lookuptable"}},
	{kind: models.KindCode, apps: []string{"code", "python", "javascript"}},
	{kind: models.KindWebhook, apps: []string{"webhook"}},
	{kind: models.KindDelay, apps: []string{"delay"}},
}

// Classify derives the step kind from its app and action identifiers
func Classify(step models.Step) models.StepKind {
	if step.TypeOf == "filter" {
		return models.KindFilter
	}
	app := strings.ToLower(step.App)
	action := strings.ToLower(step.Action)
	for _, rule := range kindRules {
		if containsAny(app, rule.apps) || containsAny(action, rule.actions) {
			return rule.kind
		}
	}
	return models.KindAction
}

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// AppName turns a selected_api identifier like "GoogleSheetsV2CLIAPI@2.5.0" into "Google Sheets V2"
func AppName(selectedAPI string) string {
	base, _, _ := strings.Cut(selectedAPI, "@")
	for strings.HasSuffix(base, "CLIAPI") {
		base = strings.TrimSuffix(base, "CLIAPI")
	}
	for strings.HasSuffix(base, "API") {
		base = strings.TrimSuffix(base, "API")
	}

	var b strings.Builder
	prevLower := false
	for _, r := range base {
		if unicode.IsUpper(r) && prevLower && b.Len() > 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r)
	}
	if b.Len() == 0 {
		return "Unknown"
	}
	return b.String()
}
