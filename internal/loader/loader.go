// Package loader turns a project's BUILD.conf, environments.yaml,
// BUILD.vars, and per-package BUILD files into a populated model.Project,
// the step spec §5 places "before evaluation starts." Grounded on
// original_source/src/cobble/loader.py's load()/load_project() worklist
// algorithm, adapted from Python's exec'd-file declaration style to a
// data-format (TOML/YAML) one, and on the teacher's internal/recipe.Loader
// for the surrounding Go shape (parse, validate, cache).
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cobbleforge/cobble/internal/cobbleconfig"
	"github.com/cobbleforge/cobble/internal/cobblelog"
	"github.com/cobbleforge/cobble/internal/model"
)

// Load reads cfg.ProjectRoot's BUILD.conf, environments.yaml, BUILD.vars,
// and the transitive closure of packages it references, returning the
// fully populated Project. logger receives one Debug line per package
// loaded (teacher's internal/recipe.Loader.Get-style progress logging).
func Load(ctx context.Context, cfg *cobbleconfig.Config, logger cobblelog.Logger) (*model.Project, error) {
	proj := model.NewProject("", cfg.ProjectRoot, cfg.OutRoot)

	vars, err := LoadBuildVars(filepath.Join(cfg.ProjectRoot, "BUILD.vars"))
	if err != nil {
		return nil, fmt.Errorf("loading BUILD.vars: %w", err)
	}

	conf, err := loadProjectConf(proj, vars)
	if err != nil {
		return nil, err
	}

	for _, sp := range conf.Subproject {
		if err := mountSubproject(proj, sp); err != nil {
			return nil, err
		}
	}

	seeds := make([]string, len(conf.Seeds))
	copy(seeds, conf.Seeds)

	if err := loadPackageWorklist(ctx, proj, seeds, cfg.JobsLoader, logger); err != nil {
		return nil, err
	}

	return proj, nil
}

// loadProjectConf parses BUILD.conf, registers its typed-key declarations,
// and loads environments.yaml against a BUILD.vars-seeded root environment.
func loadProjectConf(proj *model.Project, vars Vars) (*BuildConf, error) {
	conf, err := LoadBuildConf(proj.InPath("BUILD.conf"))
	if err != nil {
		return nil, fmt.Errorf("loading BUILD.conf: %w", err)
	}
	if err := conf.ApplyKeyDefinitions(proj); err != nil {
		return nil, fmt.Errorf("applying BUILD.conf key definitions: %w", err)
	}
	if err := conf.ValidateToolVersions(vars); err != nil {
		return nil, fmt.Errorf("validating requires_tool_version: %w", err)
	}
	if err := LoadEnvironments(proj.InPath("environments.yaml"), vars, proj); err != nil {
		return nil, fmt.Errorf("loading environments.yaml: %w", err)
	}
	return conf, nil
}

// mountSubproject loads the child project rooted at sp.Path and mounts it
// under sp.Alias (SPEC_FULL §12.3). A subproject's own BUILD.conf seeds are
// loaded eagerly since the parent's remaining BUILD files may already
// reference targets within it.
func mountSubproject(parent *model.Project, sp SubprojectEntry) error {
	childRoot := filepath.Join(parent.Root, sp.Path)
	child := model.NewProject(sp.Alias, childRoot, parent.OutRoot)

	vars, err := LoadBuildVars(filepath.Join(childRoot, "BUILD.vars"))
	if err != nil {
		return fmt.Errorf("subproject %q: loading BUILD.vars: %w", sp.Alias, err)
	}
	conf, err := loadProjectConf(child, vars)
	if err != nil {
		return fmt.Errorf("subproject %q: %w", sp.Alias, err)
	}
	if err := loadPackageWorklist(context.Background(), child, conf.Seeds, 1, cobblelog.NewNoop()); err != nil {
		return fmt.Errorf("subproject %q: %w", sp.Alias, err)
	}

	parent.AddSubproject(sp.Alias, child)
	return nil
}

// loadPackageWorklist processes the package worklist to a fixed point: each
// round loads every not-yet-visited relpath concurrently (bounded by jobs),
// then adds any new relpaths discovered through those packages' target deps
// to the next round - mirroring original_source's
// "packages_to_visit += tgt.deps" worklist growth, but batched per round
// instead of popped one at a time so the fan-out can run concurrently.
func loadPackageWorklist(ctx context.Context, proj *model.Project, seeds []string, jobs int, logger cobblelog.Logger) error {
	pending := dedupeRelpaths(seeds)
	visited := map[string]struct{}{}

	for len(pending) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)

		var mu sync.Mutex
		var discovered []string

		for _, relpath := range pending {
			if _, ok := visited[relpath]; ok {
				continue
			}
			visited[relpath] = struct{}{}
			relpath := relpath

			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				pkg, err := model.NewPackage(proj, relpath)
				if err != nil {
					return err
				}
				logger.Debug("loading package", "relpath", relpath)

				deps, err := LoadBuildFile(pkg)
				if err != nil {
					return fmt.Errorf("package %q: %w", relpath, err)
				}

				mu.Lock()
				for _, d := range deps {
					if d.Alias == "" {
						discovered = append(discovered, d.PackageRelpath)
					}
				}
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		pending = dedupeRelpaths(discovered)
	}

	return nil
}

func dedupeRelpaths(relpaths []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(relpaths))
	for _, r := range relpaths {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

