package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/cobbleforge/cobble/internal/cobbleconfig"
	"github.com/cobbleforge/cobble/internal/cobblelog"
	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/evalcache"
	"github.com/cobbleforge/cobble/internal/evalgraph"
	"github.com/cobbleforge/cobble/internal/graphview"
	"github.com/cobbleforge/cobble/internal/loader"
	"github.com/cobbleforge/cobble/internal/model"
)

// loadProject reads BUILD.conf/BUILD.vars/environments.yaml and the full
// package worklist rooted at projectRoot.
func loadProject(ctx context.Context, projectRoot string) (*model.Project, *cobbleconfig.Config, error) {
	cfg, err := cobbleconfig.Load(projectRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving configuration: %w", err)
	}
	proj, err := loader.Load(ctx, cfg, cobblelog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("loading project: %w", err)
	}
	return proj, cfg, nil
}

// evaluateLeaves walks every leaf target of proj under rootEnv (env.Empty()
// derived with any --set overrides), merging each leaf's products into one
// flat sequence plus a phony grouping record per leaf (spec §6 items 2-3).
func evaluateLeaves(ctx context.Context, proj *model.Project, rootEnv env.Env, logger cobblelog.Logger) ([]model.ProductRecord, error) {
	ev := evalgraph.New(proj.FindTarget, evalgraph.WithLogger(logger))

	var all []model.ProductRecord
	for _, target := range proj.IterLeaves() {
		_, products, err := ev.Evaluate(ctx, target, rootEnv)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", target.Identifier, err)
		}

		var leafProducts []model.ProductRecord
		for _, records := range products {
			leafProducts = append(leafProducts, records...)
		}
		all = append(all, leafProducts...)
		all = append(all, graphview.PhonyRecord(target.Identifier, leafProducts))
	}

	return graphview.DedupAndSort(all)
}

// evaluateLeavesCached is evaluateLeaves with an optional on-disk memoization
// layer: a leaf's flattened product set is looked up by (identifier,
// env digest) before evaluating, and stored back after, so a repeated
// `cobble build --cache` invocation of an unchanged project skips
// re-walking leaves it already has a cached result for (SPEC_FULL §11's
// evalcache wiring). The in-run evaluator still memoizes every
// (target, env) pair it visits regardless; this only shortcuts across
// process invocations.
func evaluateLeavesCached(ctx context.Context, proj *model.Project, rootEnv env.Env, logger cobblelog.Logger, cache *evalcache.Store) ([]model.ProductRecord, error) {
	if cache == nil {
		return evaluateLeaves(ctx, proj, rootEnv, logger)
	}

	ev := evalgraph.New(proj.FindTarget, evalgraph.WithLogger(logger))

	var all []model.ProductRecord
	for _, target := range proj.IterLeaves() {
		key := evalcache.Key(target.Identifier.String(), rootEnv.Digest())

		if cached, ok, err := cache.Get(key); err != nil {
			return nil, fmt.Errorf("reading evaluation cache for %s: %w", target.Identifier, err)
		} else if ok {
			logger.Debug("evaluation cache hit", "target", target.Identifier.String())
			all = append(all, cached...)
			continue
		}

		_, products, err := ev.Evaluate(ctx, target, rootEnv)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", target.Identifier, err)
		}

		var leafProducts []model.ProductRecord
		for _, records := range products {
			leafProducts = append(leafProducts, records...)
		}
		leafProducts = append(leafProducts, graphview.PhonyRecord(target.Identifier, leafProducts))

		if err := cache.Put(key, leafProducts); err != nil {
			return nil, fmt.Errorf("writing evaluation cache for %s: %w", target.Identifier, err)
		}
		all = append(all, leafProducts...)
	}

	return graphview.DedupAndSort(all)
}

// parseSetOverrides turns repeated --set key=value flags into Override
// deltas, applied to env.Empty() before evaluation starts.
func parseSetOverrides(assignments []string) ([]delta.Delta, error) {
	deltas := make([]delta.Delta, 0, len(assignments))
	for _, a := range assignments {
		key, value, ok := splitAssignment(a)
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", a)
		}
		deltas = append(deltas, delta.Override(key, value))
	}
	return deltas, nil
}

func splitAssignment(s string) (key, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// stdoutIsTTY reports whether stdout is an interactive terminal, checked
// via go-isatty; stdinIsTTY does the same for stdin via x/term, the
// two-surface check SPEC_FULL §11 calls for.
func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func stdinIsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// printInfo prints a line to stdout unless --quiet was passed.
func printInfo(a ...interface{}) {
	if !quietFlag {
		fmt.Println(a...)
	}
}

// printInfof is printInfo's Printf-style counterpart.
func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// printJSON marshals v to indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError writes a formatted error to stderr.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
