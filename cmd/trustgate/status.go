package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trustgate/trustgate/internal/registry"
	"github.com/trustgate/trustgate/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry-wide testing status",
	Long:  `Display per-status entity counts and the entities currently blocking promotion.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")

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

		summary := registry.GetTestingSummary(reg)
		unhealthy := registry.GetUnhealthyEntities(reg)

		switch format {
		case "json":
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		case "yaml":
			data, err := yaml.Marshal(summary)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(data))
		case "text":
			printStatusText(reg, summary, unhealthy)
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown format %q (want text, json, or yaml)\n", format)
			os.Exit(1)
		}
	},
}

func printStatusText(reg *types.Registry, summary registry.TestingSummary, unhealthy []*types.EntityRecord) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("=== Trustgate Status ==="))
	fmt.Printf("%s %d entities, %d runs recorded, %d novel runs required\n\n",
		yellow("Registry:"), summary.TotalEntities, summary.TotalRuns, reg.Config.RequiredNovelRuns)

	order := []types.EntityStatus{
		types.StatusHealthy, types.StatusTesting, types.StatusFailing,
		types.StatusStale, types.StatusUntested,
	}
	for _, status := range order {
		if count := summary.ByStatus[status]; count > 0 {
			fmt.Printf("  %-8s %d\n", status, count)
		}
	}

	fmt.Printf("\n%s\n", yellow("Blocking promotion:"))
	if len(unhealthy) == 0 {
		fmt.Printf("  %s\n", gray("nothing — all entities healthy"))
		return
	}
	for _, entity := range unhealthy {
		fmt.Printf("  %s\n", registry.FormatEntityProgress(entity, reg.Config.RequiredNovelRuns))
	}
}

func init() {
	statusCmd.Flags().String("format", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(statusCmd)
}
