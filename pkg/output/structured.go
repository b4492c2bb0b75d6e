package output

import (
	"context"
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/opscart/zap-lighthouse/pkg/models"
)

// JSONHandler writes the result document as indented JSON
type JSONHandler struct {
	w io.Writer
}

func (h *JSONHandler) Format() string { return "json" }

func (h *JSONHandler) DisplayResult(ctx context.Context, result *models.AuditResult) error {
	return h.encode(result)
}

func (h *JSONHandler) DisplayList(ctx context.Context, zaps []models.ZapSummary) error {
	return h.encode(zaps)
}

func (h *JSONHandler) encode(v any) error {
	encoder := json.NewEncoder(h.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// YAMLHandler writes the result document as YAML
type YAMLHandler struct {
	w io.Writer
}

func (h *YAMLHandler) Format() string { return "yaml" }

func (h *YAMLHandler) DisplayResult(ctx context.Context, result *models.AuditResult) error {
	return h.encode(result)
}

func (h *YAMLHandler) DisplayList(ctx context.Context, zaps []models.ZapSummary) error {
	return h.encode(zaps)
}

func (h *YAMLHandler) encode(v any) error {
	encoder := yaml.NewEncoder(h.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
