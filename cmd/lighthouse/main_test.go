package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/zap-lighthouse/pkg/config"
	"github.com/opscart/zap-lighthouse/pkg/engine"
	"github.com/opscart/zap-lighthouse/pkg/metrics"
	"github.com/opscart/zap-lighthouse/pkg/models"
)

func TestSameResultIgnoresTimestamp(t *testing.T) {
	a := &models.AuditResult{SchemaVersion: models.SchemaVersion, Metadata: models.AuditMetadata{GeneratedAt: "2026-01-01T00:00:00Z"}}
	b := &models.AuditResult{SchemaVersion: models.SchemaVersion, Metadata: models.AuditMetadata{GeneratedAt: "2026-02-01T00:00:00Z"}}

	same, err := sameResult(a, b)
	require.NoError(t, err)
	assert.True(t, same)
	assert.Equal(t, "2026-01-01T00:00:00Z", a.Metadata.GeneratedAt)

	b.GlobalMetrics.TotalZaps = 1
	same, err = sameResult(a, b)
	require.NoError(t, err)
	assert.False(t, same)
}

func TestScanParamsFlagsOverrideConfig(t *testing.T) {
	cfg = config.NewConfig()
	declared := 900
	cfg.Plan.DeclaredUsage = &declared
	cfg.Analysis.TopN = 3

	cmd := newScanCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--plan", "team", "--usage", "4000", "--zap", "7", "--zap", "9"}))

	params := scanParams(cmd)
	assert.Equal(t, "team", params.Plan)
	require.NotNil(t, params.DeclaredUsage)
	assert.Equal(t, 4000, *params.DeclaredUsage)
	assert.Equal(t, []string{"7", "9"}, params.SelectedIDs)
	assert.Equal(t, 3, params.TopN)

	params = scanParams(newScanCmd())
	assert.Equal(t, "professional", params.Plan)
	assert.Equal(t, 900, *params.DeclaredUsage)
}

func writeExport(t *testing.T, zaps int) string {
	t.Helper()
	dir := t.TempDir()
	var entries []string
	for i := 1; i <= zaps; i++ {
		entries = append(entries, fmt.Sprintf(`{"id": %d, "title": "Zap", "status": "on", "nodes": {
			"%d0": {"id": %d0, "parent_id": null, "selected_api": "WebHookCLIAPI", "action": "catch_hook"},
			"%d1": {"id": %d1, "parent_id": %d0, "selected_api": "SlackCLIAPI", "action": "send"}}}`, i, i, i, i, i, i))
	}
	doc := `{"zaps": [` + strings.Join(entries, ",") + `]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zapfile.json"), []byte(doc), 0644))
	return dir
}

func TestAuditAllKeepsArgumentOrder(t *testing.T) {
	sources := []string{writeExport(t, 1), writeExport(t, 3), writeExport(t, 2)}

	outcomes, err := auditAll(context.Background(), sources, engine.Params{Plan: "professional"}, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for i, want := range []int{1, 3, 2} {
		assert.Equal(t, sources[i], outcomes[i].source)
		assert.Equal(t, want, outcomes[i].result.GlobalMetrics.TotalZaps)
	}
}

func TestAuditAllReportsFailingExport(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.zip")
	_, err := auditAll(context.Background(), []string{writeExport(t, 1), missing}, engine.Params{}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.zip")
}

func TestScanFailedLogsMetricsExportError(t *testing.T) {
	var buf bytes.Buffer
	prevLogger, prevFile := logger, metricsFile
	t.Cleanup(func() { logger, metricsFile = prevLogger, prevFile })

	cfg = config.NewConfig()
	logger = zerolog.New(&buf)
	metricsFile = filepath.Join(t.TempDir(), "missing", "lighthouse.prom")

	scanErr := errors.New("export is not a zip archive")
	err := scanFailed(context.Background(), metrics.NewRecorder(), time.Second, scanErr)

	assert.Equal(t, scanErr, err)
	assert.Contains(t, buf.String(), "Failed to export metrics")
}
