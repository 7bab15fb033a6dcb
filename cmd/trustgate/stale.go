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

var staleCmd = &cobra.Command{
	Use:   "stale [entity-id]",
	Short: "Mark an entity stale (definition changed, coverage untrusted)",
	Long: `Force an entity into the stale state. Use when an entity's underlying
definition changed and its accumulated test coverage can no longer be
trusted. The entity returns to healthy only after re-crossing the novel-run
threshold with fresh distinct inputs.

Examples:
  trustgate stale 4f1c2ab9d0e83711
  trustgate stale --type agent --path agents/triage.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		entityType, _ := cmd.Flags().GetString("type")
		path, _ := cmd.Flags().GetString("path")

		gw, err := openGateway()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var entityID string
		err = storage.Update(context.Background(), gw, func(reg *types.Registry) error {
			entityID, err = resolveEntityID(reg, args, entityType, path)
			if err != nil {
				return err
			}
			return registry.MarkEntityStale(reg, entityID)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("%s Marked %s stale — coverage invalidated until retested\n", yellow("⚠"), entityID)
	},
}

func init() {
	staleCmd.Flags().String("type", string(types.TypeCodeNode), "entity type (with --path)")
	staleCmd.Flags().String("path", "", "entity path (alternative to entity id)")
	rootCmd.AddCommand(staleCmd)
}
