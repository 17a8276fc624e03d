package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gaoych/bean-analyze/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Writes a config file with default settings to the --config path.
Edit it afterwards, or override individual values with BEANVIZ_* environment
variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
		}

		cfg := config.DefaultConfig()
		if providerURL != "" {
			cfg.ProviderURL = providerURL
		}
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}

		color.Green("Wrote %s", cfgFile)
		fmt.Printf("  provider: %s\n  port:     %d\n", cfg.ProviderURL, cfg.Port)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
