package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trustgate/trustgate/internal/types"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a registry document",
	Long: `Create the registry document with default configuration.

Examples:
  # Default policy (3 novel runs required)
  trustgate init

  # Stricter coverage bar
  trustgate init --required-runs 5`,
	Run: func(cmd *cobra.Command, args []string) {
		requiredRuns, _ := cmd.Flags().GetInt("required-runs")

		gw, err := openGateway()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if _, err := os.Stat(gw.Path()); err == nil {
			fmt.Fprintf(os.Stderr, "Error: registry already exists at %s\n", gw.Path())
			os.Exit(1)
		}

		reg := types.NewRegistry()
		if requiredRuns > 0 {
			reg.Config.RequiredNovelRuns = requiredRuns
		}
		if err := reg.Config.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := gw.Save(context.Background(), reg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Initialized registry at %s (required novel runs: %d)\n",
			green("✓"), gw.Path(), reg.Config.RequiredNovelRuns)
	},
}

func init() {
	initCmd.Flags().Int("required-runs", 0, "novel runs required for healthy status (default 3)")
	rootCmd.AddCommand(initCmd)
}
