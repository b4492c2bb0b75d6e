package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

func result() *models.AuditResult {
	return &models.AuditResult{
		SchemaVersion: models.SchemaVersion,
		GlobalMetrics: models.GlobalMetrics{TotalZaps: 1},
		Findings:      []models.ZapFinding{{ZapID: "1", ZapName: "Invoices", Confidence: models.ConfidenceHigh}},
	}
}

func zaps() []models.ZapSummary {
	rate := 12.5
	return []models.ZapSummary{
		{ID: "1", Title: "Invoices", Status: "on", StepCount: 3, TriggerApp: "Gmail", TotalRuns: 8, ErrorRate: &rate},
		{ID: "2", Title: "", Status: "off", StepCount: 2},
	}
}

func TestNewHandler(t *testing.T) {
	for _, format := range Formats {
		h, err := NewHandler(format, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, format, h.Format())
	}
	_, err := NewHandler("xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	h, _ := NewHandler("json", &buf)
	require.NoError(t, h.DisplayResult(context.Background(), result()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, models.SchemaVersion, decoded["schema_version"])
	assert.Contains(t, decoded, "per_zap_findings")
}

func TestYAMLHandler(t *testing.T) {
	var buf bytes.Buffer
	h, _ := NewHandler("yaml", &buf)
	require.NoError(t, h.DisplayResult(context.Background(), result()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, models.SchemaVersion, decoded["schema_version"])
}

func TestTextHandlerList(t *testing.T) {
	var buf bytes.Buffer
	h, _ := NewHandler("text", &buf)
	require.NoError(t, h.DisplayList(context.Background(), zaps()))

	out := buf.String()
	assert.Contains(t, out, "Invoices")
	assert.Contains(t, out, "12.5%")
	assert.Contains(t, out, "Zap 2")
}

func TestCSVHandlerList(t *testing.T) {
	var buf bytes.Buffer
	h, _ := NewHandler("csv", &buf)
	require.NoError(t, h.DisplayList(context.Background(), zaps()))
	assert.Contains(t, buf.String(), "1,Invoices,on,3,Gmail,8,12.50,")
}
