package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaoych/bean-analyze/internal/config"
)

var (
	cfgFile     string
	providerURL string
)

var rootCmd = &cobra.Command{
	Use:   "bean-analyze",
	Short: "Interactive viewer for bean dependency chains",
	Long: `Bean Analyze connects to a bean dependency graph provider and serves an
interactive force-directed viewer: pick a root, inspect per-bean metadata,
search and highlight beans, and filter out additional or third-party beans.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".bean-analyze.yml", "config file path")
	rootCmd.PersistentFlags().StringVar(&providerURL, "provider-url", "", "graph provider base URL (overrides config)")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if providerURL != "" {
		cfg.ProviderURL = providerURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
