package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trustgate/trustgate/internal/registry"
	"github.com/trustgate/trustgate/internal/storage"
	"github.com/trustgate/trustgate/internal/types"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a test run for an entity",
	Long: `Record one test execution against an entity, creating the entity on
first reference. Coverage only grows on functionally distinct inputs:
replaying a byte-identical input never raises the novel-run count.

Examples:
  # A passing run with an inline JSON input
  trustgate record --type code-node --path workflows/fetch.ts \
      --input '{"url": "https://example.com"}' --passed

  # A failing run with the input read from a file
  trustgate record --type agent --path agents/triage.yaml \
      --input-file fixtures/ticket-42.json --error "timeout after 30s"

  # Register hierarchy while recording
  trustgate record --type node --path wf/main/step-1 --parent <parent-id> --passed`,
	Run: func(cmd *cobra.Command, args []string) {
		entityType, _ := cmd.Flags().GetString("type")
		path, _ := cmd.Flags().GetString("path")
		name, _ := cmd.Flags().GetString("name")
		parent, _ := cmd.Flags().GetString("parent")
		inputArg, _ := cmd.Flags().GetString("input")
		inputFile, _ := cmd.Flags().GetString("input-file")
		description, _ := cmd.Flags().GetString("description")
		passed, _ := cmd.Flags().GetBool("passed")
		errMsg, _ := cmd.Flags().GetString("error")
		outputArg, _ := cmd.Flags().GetString("output")
		durationArg, _ := cmd.Flags().GetDuration("duration")

		if path == "" {
			fmt.Fprintln(os.Stderr, "Error: --path is required")
			os.Exit(1)
		}
		if name == "" {
			name = path
		}

		input, err := readStructured(inputArg, inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		params := registry.RecordParams{
			EntityType:       types.EntityType(entityType),
			EntityPath:       path,
			EntityName:       name,
			ParentEntityID:   parent,
			Input:            input,
			InputDescription: description,
			Passed:           passed,
			Error:            errMsg,
		}
		if outputArg != "" {
			params.Output = parseStructured(outputArg)
		}
		if durationArg > 0 {
			params.Duration = &durationArg
		}

		gw, err := openGateway()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var result *registry.RecordResult
		requiredRuns := types.DefaultRequiredNovelRuns
		err = storage.Update(context.Background(), gw, func(reg *types.Registry) error {
			requiredRuns = reg.Config.RequiredNovelRuns
			result, err = registry.RecordTestRun(reg, params)
			return err
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		novelty := gray("replay (no new coverage)")
		if result.WasNovel {
			novelty = green("novel input")
		}
		verdict := green("passed")
		if !passed {
			verdict = color.New(color.FgRed).Sprint("failed")
		}

		fmt.Printf("Recorded %s run for %s (%s)\n", verdict, result.Entity.EntityName, novelty)
		fmt.Printf("  entity: %s\n", result.Entity.EntityID)
		fmt.Printf("  %s\n", yellow(registry.FormatEntityProgress(result.Entity, requiredRuns)))
	},
}

// readStructured loads the test input from an inline argument or a file.
// JSON inputs are parsed so logically equal documents fingerprint equally;
// anything else is treated as a raw string.
func readStructured(inline, file string) (any, error) {
	switch {
	case inline != "" && file != "":
		return nil, fmt.Errorf("--input and --input-file are mutually exclusive")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading input file: %w", err)
		}
		return parseStructured(string(data)), nil
	case inline != "":
		return parseStructured(inline), nil
	default:
		return nil, fmt.Errorf("--input or --input-file is required")
	}
}

func parseStructured(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func init() {
	recordCmd.Flags().String("type", string(types.TypeCodeNode), "entity type")
	recordCmd.Flags().String("path", "", "entity path (required)")
	recordCmd.Flags().String("name", "", "entity display name (default: path)")
	recordCmd.Flags().String("parent", "", "parent entity id")
	recordCmd.Flags().String("input", "", "test input (JSON or raw string)")
	recordCmd.Flags().String("input-file", "", "file containing the test input")
	recordCmd.Flags().String("description", "", "human description of the input")
	recordCmd.Flags().Bool("passed", false, "the run passed")
	recordCmd.Flags().String("error", "", "failure detail for failing runs")
	recordCmd.Flags().String("output", "", "test output to fingerprint")
	recordCmd.Flags().Duration("duration", 0, "run duration (e.g. 1.5s)")
	rootCmd.AddCommand(recordCmd)
}
