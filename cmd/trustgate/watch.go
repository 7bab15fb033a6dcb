package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trustgate/trustgate/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch entity definitions and mark changed entities stale",
	Long: `Run the change-detection watcher. When a governed entity's definition
file changes on disk (content hash differs from the last observation), the
entity is marked stale and must re-earn its coverage before promotion.

Configuration is a YAML file mapping path prefixes to entity types:

  roots:
    - workflows
    - agents
  rules:
    - path_prefix: workflows/
      entity_type: subworkflow
    - path_prefix: agents/
      entity_type: agent
  default_type: code-node

Example:
  trustgate watch --config .trustgate/watch.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		cfg := watcher.DefaultConfig()
		if configPath != "" {
			loaded, err := watcher.LoadConfig(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			cfg = loaded
		}

		gw, err := openGateway()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		w, err := watcher.New(gw, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			yellow := color.New(color.FgYellow).SprintFunc()
			for id := range w.Marked {
				fmt.Printf("%s entity %s marked stale\n", yellow("⚠"), id)
			}
		}()

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s watching %v (ctrl-c to stop)\n", cyan("trustgate"), cfg.Roots)

		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().String("config", "", "watcher config file (YAML)")
	rootCmd.AddCommand(watchCmd)
}
