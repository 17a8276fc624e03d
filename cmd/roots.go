package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gaoych/bean-analyze/internal/provider"
)

var (
	rootsExcludeAdditional bool
	rootsExcludeThirdParty bool
)

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List dependency chain roots from the provider",
	Long: `Lists every root bean the provider knows under the given filters, marking
chains nothing else references. Useful for finding dead dependency chains
without opening the viewer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := provider.NewClient(cfg.ProviderURL, cfg.CacheSize)
		if err != nil {
			return fmt.Errorf("creating provider client: %w", err)
		}

		filters := provider.Filters{
			ExcludeAdditional: rootsExcludeAdditional,
			ExcludeThirdParty: rootsExcludeThirdParty,
		}
		if rootsExcludeThirdParty {
			// The third-party filter needs the explicit package list;
			// an unfiltered listing tells us what exists.
			prelim, err := client.ListRoots(context.Background(), provider.Filters{
				ExcludeAdditional: rootsExcludeAdditional,
			})
			if err != nil {
				return fmt.Errorf("discovering third-party packages: %w", err)
			}
			for _, pkg := range prelim.ThirdPartyPackages {
				filters.ThirdPartyPackages = append(filters.ThirdPartyPackages, pkg.ID)
			}
		}
		list, err := client.ListRoots(context.Background(), filters)
		if err != nil {
			return fmt.Errorf("listing roots: %w", err)
		}

		unused := make(map[string]int, len(list.UnusedChains))
		for _, u := range list.UnusedChains {
			unused[u.Root] = u.NodeCount
		}

		red := color.New(color.FgRed)
		green := color.New(color.FgGreen)
		for _, root := range list.Roots {
			if count, ok := unused[root]; ok {
				red.Printf("%s  (unused chain, %d beans)\n", root, count)
				continue
			}
			green.Println(root)
		}
		fmt.Printf("\n%d roots, %d unused chains\n", len(list.Roots), len(list.UnusedChains))
		return nil
	},
}

func init() {
	rootsCmd.Flags().BoolVar(&rootsExcludeAdditional, "exclude-additional", false, "exclude additional beans")
	rootsCmd.Flags().BoolVar(&rootsExcludeThirdParty, "exclude-third-party", false, "exclude third-party beans")
	rootCmd.AddCommand(rootsCmd)
}
