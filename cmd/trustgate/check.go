package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trustgate/trustgate/internal/fingerprint"
	"github.com/trustgate/trustgate/internal/registry"
	"github.com/trustgate/trustgate/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check [entity-id]",
	Short: "Gate decision: is an entity (and its subtree) release-safe?",
	Long: `Check whether an entity and its full descendant closure are healthy.
Exits 0 when the entity is release-safe, 1 when it is blocked, so the
command slots directly into promotion pipelines.

Examples:
  trustgate check 4f1c2ab9d0e83711
  trustgate check --type subworkflow --path workflows/ingest
  trustgate check <id> --no-children --json`,
	Run: func(cmd *cobra.Command, args []string) {
		noChildren, _ := cmd.Flags().GetBool("no-children")
		asJSON, _ := cmd.Flags().GetBool("json")
		entityType, _ := cmd.Flags().GetString("type")
		path, _ := cmd.Flags().GetString("path")

		gw, err := openGateway()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		reg, err := gw.Load(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		entityID, err := resolveEntityID(reg, args, entityType, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		result := registry.CheckEntityHealth(reg, entityID, !noChildren)

		if asJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		} else {
			entity, _ := registry.GetEntity(reg, entityID)
			report := registry.FormatHealthReport(entity, result)
			if result.IsHealthy {
				fmt.Print(color.GreenString(report))
			} else {
				fmt.Print(color.RedString(report))
			}
		}

		if !result.IsHealthy {
			os.Exit(1)
		}
	},
}

// resolveEntityID accepts either a positional entity id or a --type/--path
// pair. Identity is derived from (type, path), so a never-recorded entity
// still resolves to its stable id and the check reports it as never tested.
func resolveEntityID(reg *types.Registry, args []string, entityType, path string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if path == "" {
		return "", fmt.Errorf("an entity id argument or --path is required")
	}
	if entity, ok := registry.GetEntityByPath(reg, types.EntityType(entityType), path); ok {
		return entity.EntityID, nil
	}
	return fingerprint.EntityKey(types.EntityType(entityType), path)
}

func init() {
	checkCmd.Flags().Bool("no-children", false, "check only the entity itself, not its subtree")
	checkCmd.Flags().Bool("json", false, "emit the raw health check result as JSON")
	checkCmd.Flags().String("type", string(types.TypeCodeNode), "entity type (with --path)")
	checkCmd.Flags().String("path", "", "entity path (alternative to entity id)")
	rootCmd.AddCommand(checkCmd)
}
