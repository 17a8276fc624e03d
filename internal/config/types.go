package config

import "github.com/gaoych/bean-analyze/internal/layout"

// Config is the top-level bean-analyze configuration, corresponding to
// .bean-analyze.yml.
type Config struct {
	// ProviderURL is the base URL of the external graph provider. Read
	// once at startup.
	ProviderURL string `yaml:"provider_url" koanf:"provider_url"`
	// Port the viewer server listens on.
	Port int `yaml:"port" koanf:"port"`
	// AllowAllOrigins relaxes CORS for development.
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	// CacheSize bounds the in-process snapshot cache.
	CacheSize int `yaml:"cache_size" koanf:"cache_size"`
	// TickIntervalMS is the layout frame interval pushed to clients.
	TickIntervalMS int `yaml:"tick_interval_ms" koanf:"tick_interval_ms"`

	Layout layout.Config `yaml:"layout" koanf:"layout"`
}
