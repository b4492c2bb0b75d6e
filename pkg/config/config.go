package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/opscart/zap-lighthouse/pkg/models"
	"github.com/opscart/zap-lighthouse/pkg/pricing"
)

// EnvPrefix marks environment overrides. Nested keys use a double underscore,
// e.g. LIGHTHOUSE_PLAN__FAMILY=team.
const EnvPrefix = "LIGHTHOUSE_"

// Config holds application configuration
type Config struct {
	Plan     PlanConfig     `yaml:"plan" koanf:"plan"`
	Analysis AnalysisConfig `yaml:"analysis" koanf:"analysis"`
	Output   OutputConfig   `yaml:"output" koanf:"output"`
	Storage  StorageConfig  `yaml:"storage" koanf:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics" koanf:"metrics"`
	Pricing  PricingConfig  `yaml:"pricing,omitempty" koanf:"pricing"`
}

type PlanConfig struct {
	Family        string `yaml:"family" koanf:"family"`
	DeclaredUsage *int   `yaml:"declared_usage,omitempty" koanf:"declared_usage"`
}

type AnalysisConfig struct {
	TopN int `yaml:"top_n" koanf:"top_n"`
	// EffortHours overrides remediation estimates per flag code
	EffortHours        map[string]float64 `yaml:"effort_hours,omitempty" koanf:"effort_hours"`
	DefaultEffortHours float64            `yaml:"default_effort_hours" koanf:"default_effort_hours"`
}

type OutputConfig struct {
	Format    string `yaml:"format" koanf:"format"` // text, json, yaml, csv
	Verbose   bool   `yaml:"verbose" koanf:"verbose"`
	LogLevel  string `yaml:"log_level" koanf:"log_level"`
	LogFormat string `yaml:"log_format" koanf:"log_format"` // console, json
}

type StorageConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Type    string `yaml:"type" koanf:"type"` // sqlite, postgres
	Path    string `yaml:"path" koanf:"path"`
	URL     string `yaml:"url" koanf:"url"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile" koanf:"textfile"`
}

// PricingConfig replaces the published tier tables, keyed by plan family
type PricingConfig struct {
	Tiers map[string][]TierConfig `yaml:"tiers,omitempty" koanf:"tiers"`
}

type TierConfig struct {
	Capacity int     `yaml:"capacity" koanf:"capacity"`
	Price    float64 `yaml:"price" koanf:"price"`
}

// ProviderConfig converts the pricing section for pricing.NewProvider
func (c *Config) ProviderConfig() *pricing.Config {
	if len(c.Pricing.Tiers) == 0 {
		return nil
	}
	tiers := make(map[string][]models.Tier, len(c.Pricing.Tiers))
	for plan, table := range c.Pricing.Tiers {
		for _, t := range table {
			tiers[plan] = append(tiers[plan], models.Tier{Capacity: t.Capacity, Price: t.Price})
		}
	}
	return &pricing.Config{Tiers: tiers}
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		Plan: PlanConfig{Family: string(models.PlanProfessional)},
		Analysis: AnalysisConfig{
			TopN:               0, // all
			DefaultEffortHours: 1.0,
		},
		Output: OutputConfig{
			Format:    "text",
			LogLevel:  "info",
			LogFormat: "console",
		},
		Storage: StorageConfig{
			Enabled: false,
			Type:    "sqlite",
			Path:    DefaultDatabasePath(),
		},
	}
}

// DefaultDatabasePath is ~/.lighthouse/runs.db, or a relative path when the home directory is unknown
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lighthouse", "runs.db")
	}
	return filepath.Join(home, ".lighthouse", "runs.db")
}

// DefaultPath is where Load looks when no path is given
func DefaultPath() string {
	return ".lighthouse.yml"
}

// Load reads the YAML file at path over the defaults, then applies LIGHTHOUSE_* overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := NewConfig()

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Save writes the configuration to path as YAML
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validFormats = map[string]bool{"text": true, "json": true, "yaml": true, "csv": true}

var validStores = map[string]bool{"sqlite": true, "postgres": true}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Plan.Family) {
	case "", "professional", "pro", "team":
	default:
		return fmt.Errorf("invalid plan family %q: must be professional or team", c.Plan.Family)
	}
	if c.Plan.DeclaredUsage != nil && *c.Plan.DeclaredUsage < 0 {
		return fmt.Errorf("declared_usage must be non-negative")
	}

	if c.Analysis.TopN < 0 {
		return fmt.Errorf("top_n must be non-negative")
	}
	if c.Analysis.DefaultEffortHours < 0 {
		return fmt.Errorf("default_effort_hours must be non-negative")
	}
	for code, hours := range c.Analysis.EffortHours {
		if !models.FlagCode(strings.ToUpper(code)).Valid() {
			return fmt.Errorf("effort_hours: unknown flag code %q", code)
		}
		if hours < 0 {
			return fmt.Errorf("effort_hours: %s must be non-negative", code)
		}
	}

	if _, err := pricing.NewProvider(c.ProviderConfig()); err != nil {
		return fmt.Errorf("invalid pricing tiers: %w", err)
	}

	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format %q: must be one of text, json, yaml, csv", c.Output.Format)
	}

	if c.Storage.Enabled {
		if !validStores[c.Storage.Type] {
			return fmt.Errorf("invalid storage type %q: must be sqlite or postgres", c.Storage.Type)
		}
		if c.Storage.Type == "postgres" && c.Storage.URL == "" {
			return fmt.Errorf("storage.url must be set for postgres storage")
		}
		if c.Storage.Type == "sqlite" && c.Storage.Path == "" {
			return fmt.Errorf("storage.path must be set for sqlite storage")
		}
	}
	return nil
}
