package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/cobbleforge/cobble/internal/cobblelog"
	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
)

var (
	queryProjectRoot string
	querySetFlags    []string
)

var queryCmd = &cobra.Command{
	Use:   "query <path>",
	Short: "Run a gjson path query over the evaluated product set",
	Long: `query evaluates the project's build graph, serializes the resulting
product set to JSON, and runs a gjson path expression over it - e.g.

  cobble query "#(rule==link_c_program)#.outputs"

--set overrides are assembled into a single JSON object via sjson before
being applied to the root environment, so multiple --set flags compose the
way repeated BUILD.vars overrides would.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryProjectRoot, "project", ".", "project root containing BUILD.conf")
	queryCmd.Flags().StringArrayVar(&querySetFlags, "set", nil, "override a root env key (key=value, repeatable)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	path := args[0]

	proj, _, err := loadProject(cmd.Context(), queryProjectRoot)
	if err != nil {
		printError(err)
		os.Exit(ExitLoadFailed)
	}

	overrides, err := setOverridesFromJSON(querySetFlags)
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

	productJSON, err := json.Marshal(viewRecords(records))
	if err != nil {
		printError(fmt.Errorf("marshaling product set: %w", err))
		os.Exit(ExitEvalFailed)
	}

	result := gjson.GetBytes(productJSON, path)
	out := []byte(result.Raw)
	if len(out) == 0 {
		out = []byte(result.String())
	}
	if stdoutIsTTY() && (result.IsArray() || result.IsObject()) {
		out = pretty.Color(pretty.Pretty(out), nil)
	}
	_, err = os.Stdout.Write(out)
	return err
}

// setOverridesFromJSON builds a single JSON object out of repeated
// key=value --set flags via sjson.Set, then walks it with gjson to produce
// one Override delta per top-level key (SPEC_FULL §11's sjson/gjson
// wiring for query-time env overrides).
func setOverridesFromJSON(assignments []string) ([]delta.Delta, error) {
	blob := "{}"
	for _, a := range assignments {
		key, value, ok := splitAssignment(a)
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", a)
		}
		updated, err := sjson.Set(blob, key, value)
		if err != nil {
			return nil, fmt.Errorf("applying --set %q: %w", a, err)
		}
		blob = updated
	}

	var deltas []delta.Delta
	gjson.Parse(blob).ForEach(func(key, value gjson.Result) bool {
		deltas = append(deltas, delta.Override(key.String(), value.String()))
		return true
	})
	return deltas, nil
}
