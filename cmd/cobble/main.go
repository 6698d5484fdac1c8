package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cobbleforge/cobble/internal/buildinfo"
	"github.com/cobbleforge/cobble/internal/cobblelog"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

// globalCtx is the application-level context that is canceled on
// SIGINT/SIGTERM. Commands use this context for cancellable operations
// (loading packages, evaluating the graph, downloading a plugin pack).
var globalCtx context.Context
var globalCancel context.CancelFunc

var rootCmd = &cobra.Command{
	Use:   "cobble",
	Short: "A contextual build-graph evaluator",
	Long: `cobble computes a build graph from a project's BUILD files and emits a
ninja manifest.

It walks targets under their incoming build environment, memoizing each
(target, environment) pair, and assembles the deduplicated, stably-ordered
set of build products a ninja writer can consume.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Show errors only")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show verbose output (INFO level)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Show debug output (includes source locations)")

	rootCmd.PersistentPreRun = initLogger
	rootCmd.Version = buildinfo.Version()

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(targetsCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(verifyManifestCmd)
}

func main() {
	globalCtx, globalCancel = context.WithCancel(context.Background())
	defer globalCancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived %s, canceling...\n", sig)
		globalCancel()

		<-sigChan
		fmt.Fprintln(os.Stderr, "Forced exit")
		os.Exit(ExitCancelled)
	}()

	if err := rootCmd.ExecuteContext(globalCtx); err != nil {
		if globalCtx.Err() == context.Canceled {
			os.Exit(ExitCancelled)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitGeneral)
	}
}

// initLogger wires a slog-backed cobblelog.Logger as the package default
// before any command runs, honoring --quiet/--verbose/--debug and their
// COBBLE_* environment-variable equivalents (flags win).
func initLogger(cmd *cobra.Command, args []string) {
	level := determineLogLevel()
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	cobblelog.SetDefault(cobblelog.New(handler))
}

func determineLogLevel() slog.Level {
	if debugFlag {
		return slog.LevelDebug
	}
	if verboseFlag {
		return slog.LevelInfo
	}
	if quietFlag {
		return slog.LevelError
	}

	if isTruthy(os.Getenv("COBBLE_DEBUG")) {
		return slog.LevelDebug
	}
	if isTruthy(os.Getenv("COBBLE_VERBOSE")) {
		return slog.LevelInfo
	}
	if isTruthy(os.Getenv("COBBLE_QUIET")) {
		return slog.LevelError
	}

	return slog.LevelWarn
}

func isTruthy(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
