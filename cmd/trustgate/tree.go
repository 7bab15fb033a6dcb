package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trustgate/trustgate/internal/registry"
	"github.com/trustgate/trustgate/internal/storage"
	"github.com/trustgate/trustgate/internal/types"
)

var treeCmd = &cobra.Command{
	Use:   "tree <root-entity-id>",
	Short: "Build and show a hierarchy summary for a subtree",
	Long: `Traverse the subtree rooted at an entity, cache the summary in the
registry, and print it. The cached summary is advisory: gating decisions
('trustgate check') always recompute health live.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootID := args[0]

		gw, err := openGateway()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var record *types.HierarchyRecord
		err = storage.Update(context.Background(), gw, func(reg *types.Registry) error {
			record, err = registry.BuildHierarchy(reg, rootID)
			return err
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("%s\n", cyan(fmt.Sprintf("=== Hierarchy: %s ===", rootID)))
		fmt.Printf("  entities: %d (depth %d)\n", record.TotalEntities, record.Depth)
		if record.AllHealthy {
			fmt.Printf("  %s all entities healthy\n", green("✓"))
		} else {
			fmt.Printf("  %s %d unhealthy entities:\n", red("✗"), len(record.UnhealthyEntities))
			for _, id := range record.UnhealthyEntities {
				fmt.Printf("    - %s\n", id)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}
