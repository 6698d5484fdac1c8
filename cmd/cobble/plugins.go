package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cobbleforge/cobble/internal/pluginpack"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage GitHub-distributed rule packs",
}

var (
	pluginsInstallTag  string
	pluginsInstallDest string
	pluginsInstallCtor string
)

var pluginsInstallCmd = &cobra.Command{
	Use:   "install <owner>/<repo>",
	Short: "Download and unpack a rule-pack release from GitHub",
	Long: `install fetches a ".tar.xz" release asset from <owner>/<repo> (the
latest release, or --tag if given) and extracts it into --dest, recording
install metadata alongside the extracted files.

A GitHub token for private repos can be supplied via --token or the
COBBLE_GITHUB_TOKEN environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: runPluginsInstall,
}

func init() {
	pluginsCmd.AddCommand(pluginsInstallCmd)
	pluginsInstallCmd.Flags().StringVar(&pluginsInstallTag, "tag", "", "release tag to install (default: latest)")
	pluginsInstallCmd.Flags().StringVar(&pluginsInstallDest, "dest", "rules", "directory to extract the rule pack into")
	pluginsInstallCmd.Flags().StringVar(&pluginsInstallCtor, "token", "", "GitHub token for private repos (default: $COBBLE_GITHUB_TOKEN)")
}

func runPluginsInstall(cmd *cobra.Command, args []string) error {
	ref := args[0]
	token := pluginsInstallCtor
	if token == "" {
		token = os.Getenv("COBBLE_GITHUB_TOKEN")
	}

	client := pluginpack.New(pluginsInstallDest, token)
	files, err := client.Install(cmd.Context(), ref, pluginsInstallTag, pluginsInstallDest)
	if err != nil {
		printError(fmt.Errorf("installing %s: %w", ref, err))
		os.Exit(ExitGeneral)
	}

	printInfof("installed %d file(s) from %s into %s\n", len(files), ref, pluginsInstallDest)
	for _, f := range files {
		printInfo(" ", f)
	}
	return nil
}
