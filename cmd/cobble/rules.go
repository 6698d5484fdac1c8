package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var rulesProjectRoot string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the downstream rules registered across a project's BUILD files",
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesProjectRoot, "project", ".", "project root containing BUILD.conf")
}

func runRules(cmd *cobra.Command, args []string) error {
	proj, _, err := loadProject(cmd.Context(), rulesProjectRoot)
	if err != nil {
		printError(err)
		os.Exit(ExitLoadFailed)
	}

	names := make([]string, 0, len(proj.Rules))
	for name := range proj.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := proj.Rules[name]
		modules := make([]string, 0, len(def.DefiningModules))
		for m := range def.DefiningModules {
			modules = append(modules, m)
		}
		sort.Strings(modules)
		fmt.Printf("%s  (defined by %s)\n", name, strings.Join(modules, ", "))
	}
	return nil
}
