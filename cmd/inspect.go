package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/gaoych/bean-analyze/internal/provider"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [root]",
	Short: "Inspect one dependency chain from the terminal",
	Long: `Loads the subgraph of a root and prints its chain summary and the most
referenced beans. With no argument, prompts for a root interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := provider.NewClient(cfg.ProviderURL, cfg.CacheSize)
		if err != nil {
			return fmt.Errorf("creating provider client: %w", err)
		}
		ctx := context.Background()

		var root string
		if len(args) == 1 {
			root = args[0]
		} else {
			list, err := client.ListRoots(ctx, provider.Filters{})
			if err != nil {
				return fmt.Errorf("listing roots: %w", err)
			}
			if len(list.Roots) == 0 {
				return fmt.Errorf("provider reports no roots")
			}
			prompt := promptui.Select{
				Label: "Pick a root",
				Items: list.Roots,
				Size:  15,
				Searcher: func(input string, index int) bool {
					return strings.Contains(strings.ToLower(list.Roots[index]), strings.ToLower(input))
				},
			}
			_, root, err = prompt.Run()
			if err != nil {
				return fmt.Errorf("selecting root: %w", err)
			}
		}

		snap, err := client.LoadSnapshot(ctx, provider.Query{Root: root})
		if err != nil {
			return fmt.Errorf("loading graph for %q: %w", root, err)
		}

		bold := color.New(color.Bold)
		bold.Printf("%s\n", root)
		fmt.Printf("  %d beans, %d edges\n", len(snap.Nodes), len(snap.Edges))
		if cs := snap.ChainSummary; cs != nil {
			fmt.Printf("  %d leaves\n", cs.LeafCount)
			if cs.IsUnused {
				color.Red("  unused chain: nothing outside references it")
			} else if cs.ExternalReferencerCount > 0 {
				fmt.Printf("  %d beans referenced by %d beans outside this chain\n",
					cs.ExternallyReferencedNodes, cs.ExternalReferencerCount)
			}
		}

		// Most referenced beans in this chain.
		top := make([]string, 0, len(snap.Nodes))
		for _, n := range snap.Nodes {
			top = append(top, n.ID)
		}
		sort.SliceStable(top, func(i, j int) bool {
			return snap.NodeByID(top[i]).DependentCount > snap.NodeByID(top[j]).DependentCount
		})
		if len(top) > 10 {
			top = top[:10]
		}
		bold.Println("\nMost referenced:")
		for _, id := range top {
			fmt.Printf("  %4d  %s\n", snap.NodeByID(id).DependentCount, id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
