package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cobbleforge/cobble/internal/cobbleconfig"
	"github.com/cobbleforge/cobble/internal/cobblelog"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/evalcache"
	"github.com/cobbleforge/cobble/internal/model"
	"github.com/cobbleforge/cobble/internal/ninjawriter"
	"github.com/cobbleforge/cobble/internal/provenance"
)

var (
	buildProjectRoot string
	buildOutFile     string
	buildSetFlags    []string
	buildUseCache    bool
	buildSignKey     string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Evaluate the build graph and emit a ninja manifest",
	Long: `build loads a project's BUILD files, evaluates every leaf target's
contextual build graph, and writes the resulting deduplicated product set
as a ninja manifest.

A run id (visible in --verbose logs) correlates one invocation's log lines
with the manifest it produced.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildProjectRoot, "project", ".", "project root containing BUILD.conf")
	buildCmd.Flags().StringVarP(&buildOutFile, "out", "o", "", "manifest output path (default: stdout)")
	buildCmd.Flags().StringArrayVar(&buildSetFlags, "set", nil, "override a root env key (key=value, repeatable)")
	buildCmd.Flags().BoolVar(&buildUseCache, "cache", false, "memoize per-leaf products in the on-disk evaluation cache")
	buildCmd.Flags().StringVar(&buildSignKey, "sign", "", "path to an armored PGP private key to detached-sign the manifest digest")
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()
	runID := uuid.New().String()
	logger := cobblelog.Default().With("run_id", runID)

	proj, cfg, err := loadProject(cmd.Context(), buildProjectRoot)
	if err != nil {
		printError(err)
		os.Exit(ExitLoadFailed)
	}

	overrides, err := parseSetOverrides(buildSetFlags)
	if err != nil {
		printError(err)
		os.Exit(ExitUsage)
	}
	rootEnv, err := env.Empty().Derive(overrides...)
	if err != nil {
		printError(fmt.Errorf("applying --set overrides: %w", err))
		os.Exit(ExitUsage)
	}

	var cache *evalcache.Store
	if buildUseCache {
		cache, err = openBuildCache(proj, cfg)
		if err != nil {
			printError(err)
			os.Exit(ExitEvalFailed)
		}
	}

	records, err := evaluateLeavesCached(cmd.Context(), proj, rootEnv, logger, cache)
	if err != nil {
		printError(err)
		os.Exit(ExitEvalFailed)
	}

	if cache != nil {
		if err := cache.Flush(); err != nil {
			logger.Warn("failed to flush evaluation cache", "error", err)
		}
	}

	out := os.Stdout
	if buildOutFile != "" {
		f, err := os.Create(buildOutFile)
		if err != nil {
			printError(fmt.Errorf("creating %s: %w", buildOutFile, err))
			os.Exit(ExitWriteFailed)
		}
		defer f.Close()
		out = f
	}

	manifest, err := renderManifest(records)
	if err != nil {
		printError(err)
		os.Exit(ExitWriteFailed)
	}
	if _, err := out.Write(manifest); err != nil {
		printError(fmt.Errorf("writing manifest: %w", err))
		os.Exit(ExitWriteFailed)
	}

	if buildSignKey != "" {
		if err := signManifest(buildSignKey, manifest); err != nil {
			printError(err)
			os.Exit(ExitVerifyFailed)
		}
	}

	printInfof("%s products in %s (run %s)\n",
		humanize.Comma(int64(len(records))), time.Since(start).Round(time.Millisecond), runID[:8])
	return nil
}

func renderManifest(records []model.ProductRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := ninjawriter.WriteAll(&buf, records); err != nil {
		return nil, fmt.Errorf("rendering manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func openBuildCache(proj *model.Project, cfg *cobbleconfig.Config) (*evalcache.Store, error) {
	generation, err := evalcache.HashGeneration(proj.IterFiles())
	if err != nil {
		return nil, fmt.Errorf("hashing cache generation: %w", err)
	}
	store := evalcache.Open(cfg.CacheDBPath, generation, cfg.CacheSizeLimit)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("loading evaluation cache: %w", err)
	}
	return store, nil
}

func signManifest(keyPath string, manifest []byte) error {
	armoredKey, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("reading signing key %s: %w", keyPath, err)
	}
	digest := provenance.ManifestDigest(manifest)
	sig, err := provenance.SignManifestDigest(string(armoredKey), digest)
	if err != nil {
		return fmt.Errorf("signing manifest: %w", err)
	}
	sigPath := buildOutFile + ".sig"
	if buildOutFile == "" {
		sigPath = "cobble.ninja.sig"
	}
	if err := os.WriteFile(sigPath, []byte(sig), 0o644); err != nil {
		return fmt.Errorf("writing signature %s: %w", sigPath, err)
	}
	printInfof("wrote detached signature to %s\n", sigPath)
	return nil
}
