package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/cobbleforge/cobble/internal/cobblelog"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/model"
)

var (
	graphProjectRoot string
	graphFormat      string
	graphSetFlags    []string
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the evaluated product set without writing a manifest",
	Long: `graph evaluates every leaf target's build graph the same way build does,
but prints the resulting product set directly instead of rendering it to
ninja syntax - useful for inspecting what a project would produce.`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&graphProjectRoot, "project", ".", "project root containing BUILD.conf")
	graphCmd.Flags().StringVar(&graphFormat, "format", "text", "output format: text or json")
	graphCmd.Flags().StringArrayVar(&graphSetFlags, "set", nil, "override a root env key (key=value, repeatable)")
}

func runGraph(cmd *cobra.Command, args []string) error {
	proj, _, err := loadProject(cmd.Context(), graphProjectRoot)
	if err != nil {
		printError(err)
		os.Exit(ExitLoadFailed)
	}

	overrides, err := parseSetOverrides(graphSetFlags)
	if err != nil {
		printError(err)
		os.Exit(ExitUsage)
	}
	rootEnv, err := env.Empty().Derive(overrides...)
	if err != nil {
		printError(fmt.Errorf("applying --set overrides: %w", err))
		os.Exit(ExitUsage)
	}

	records, err := evaluateLeaves(cmd.Context(), proj, rootEnv, cobblelog.Default())
	if err != nil {
		printError(err)
		os.Exit(ExitEvalFailed)
	}

	switch graphFormat {
	case "json":
		return printGraphJSON(records)
	case "text":
		for _, r := range records {
			fmt.Printf("%s: %s %s\n", r.Outputs, r.Rule, r.Inputs)
		}
		return nil
	default:
		return fmt.Errorf("unknown --format %q (want text or json)", graphFormat)
	}
}

// printGraphJSON marshals records as JSON, colorizing the output with
// tidwall/pretty when stdout is a terminal (SPEC_FULL §11's pretty wiring).
func printGraphJSON(records []model.ProductRecord) error {
	b, err := json.MarshalIndent(viewRecords(records), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling product set: %w", err)
	}
	if stdoutIsTTY() {
		b = pretty.Color(pretty.Pretty(b), nil)
	}
	_, err = os.Stdout.Write(b)
	return err
}
