package config

import "github.com/gaoych/bean-analyze/internal/layout"

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	return &Config{
		ProviderURL:    "http://localhost:8000",
		Port:           8080,
		CacheSize:      32,
		TickIntervalMS: 33,
		Layout:         layout.DefaultConfig(),
	}
}
