package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cobbleforge/cobble/internal/model"
)

var (
	targetsProjectRoot string
	targetsLeavesOnly  bool
	targetsJSON        bool
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List every target in a loaded project",
	RunE:  runTargets,
}

func init() {
	targetsCmd.Flags().StringVar(&targetsProjectRoot, "project", ".", "project root containing BUILD.conf")
	targetsCmd.Flags().BoolVar(&targetsLeavesOnly, "leaves", false, "list only leaf targets")
	targetsCmd.Flags().BoolVar(&targetsJSON, "json", false, "print as JSON")
}

func runTargets(cmd *cobra.Command, args []string) error {
	proj, _, err := loadProject(cmd.Context(), targetsProjectRoot)
	if err != nil {
		printError(err)
		os.Exit(ExitLoadFailed)
	}

	var targets []*model.Target
	if targetsLeavesOnly {
		targets = proj.IterLeaves()
	} else {
		targets = proj.IterTargets()
	}

	if targetsJSON {
		names := make([]string, len(targets))
		for i, t := range targets {
			names[i] = t.Identifier.String()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}

	for _, t := range targets {
		fmt.Println(t.Identifier.String())
	}
	return nil
}
