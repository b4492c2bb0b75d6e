package pricing

// NewProvider returns the configured tier source, falling back to the published tables
func NewProvider(config *Config) (Provider, error) {
	if config == nil || len(config.Tiers) == 0 {
		return NewDefaultProvider(), nil
	}
	return NewTableProvider(config.Tiers)
}
