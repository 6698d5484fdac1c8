// Package targetkind implements the model.Kind sum type: program, library,
// preprocess, generic, and test target kinds, differing only in how they
// build their three deltas and what products they emit (spec §3, §9 design
// note). Program/Library are grounded directly on
// original_source/cobble/target/c.py's CTarget/Program/Library; Preprocess
// and Generic extend the same three-delta shape to the distilled spec's
// wider target-kind list (spec.md §3); Test is grounded on the "most evolved
// variant" referenced by spec §9 and original_source/cobble/target/c_test.py
// (SPEC_FULL §12.4).
package targetkind

import (
	"fmt"
	"path/filepath"

	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

// ninja rule names, lifted from original_source/cobble/target/c.py's
// ninja_rules dict.
const (
	ruleCompileObject  = "compile_c_object"
	ruleLinkProgram    = "link_c_program"
	ruleArchiveLibrary = "archive_c_library"
	ruleSymlinkLeaf    = "symlink_leaf"
	ruleRunTest        = "run_c_test"
	ruleGenericCmd     = "run_generic_cmd"
	rulePreprocessCmd  = "preprocess_cmd"
)

// CTarget holds the fields common to every C-family target kind: its own
// identifier (computed by the caller from the owning package and name before
// NewTarget wires it into that package), a back-reference to the package for
// path resolution, and the raw (unfrozen) local-delta inputs (spec §3's
// "local delta... applied to incoming environment").
type CTarget struct {
	Identifier ident.Ident
	Package    *model.Package
	Deps       []ident.Ident
	Sources    []string
	CFlags     []string
}

func newIdentifier(pkg *model.Package, name string) ident.Ident {
	return ident.Ident{Alias: pkg.Project.Alias, PackageRelpath: pkg.Relpath, TargetName: name}
}

// localDeltas returns the appending delta sequence every C-family kind
// applies during DeriveLocal (spec §4.4 step 3), grounded on CTarget's
// constructor building make_appending_delta(cflags=..., sources=..., deps=...).
func (c *CTarget) localDeltas() []delta.Delta {
	return []delta.Delta{
		delta.Append("cflags", c.CFlags),
		delta.Append("sources", c.Sources),
		delta.Append("deps", c.Deps),
	}
}

// DeriveDown is the default identity down-derivation (spec §4.4 step 2);
// Program overrides it to substitute a named environment.
func (c *CTarget) DeriveDown(envUp env.Env) (env.Env, error) {
	return envUp, nil
}

// DeriveLocal applies the appending local delta to env_down (spec §4.4 step 3).
func (c *CTarget) DeriveLocal(envDown env.Env) (env.Env, error) {
	return envDown.Derive(c.localDeltas()...)
}

// stringsFromEnv reads key as a tuple of strings, tolerating a missing key
// (returns nil) the way original_source's env_local.get(key, []) does.
func stringsFromEnv(e env.Env, key string) []string {
	v, ok := e.Lookup(key)
	if !ok {
		return nil
	}
	tuple, ok := v.AsTuple()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(tuple))
	for _, elem := range tuple {
		if s, ok := elem.AsString(); ok {
			out = append(out, s)
		}
	}
	return out
}

// compileObject mirrors CTarget._compile_object: compiles a single source
// file into an object file under a restricted env subset.
func compileObject(pkg *model.Package, source string, e env.Env, compileKeys []string) (model.ProductRecord, string, error) {
	oEnv := e.Subset(compileKeys...)
	output := pkg.OutPath(oEnv, source+".o")
	rec, err := model.Product(oEnv, []string{output}, ruleCompileObject, []string{pkg.InPath(source)}, nil, nil)
	if err != nil {
		return model.ProductRecord{}, "", fmt.Errorf("compiling %s: %w", source, err)
	}
	return rec, output, nil
}

// compileSources compiles every entry of sources and returns their object
// products plus the flat list of object file paths, in source order.
func compileSources(pkg *model.Package, sources []string, e env.Env, compileKeys []string) ([]model.ProductRecord, []string, error) {
	objects := make([]model.ProductRecord, 0, len(sources))
	objFiles := make([]string, 0, len(sources))
	for _, s := range sources {
		rec, out, err := compileObject(pkg, s, e, compileKeys)
		if err != nil {
			return nil, nil, err
		}
		objects = append(objects, rec)
		objFiles = append(objFiles, out)
	}
	return objects, objFiles, nil
}

// symlinkLeaf builds the stable-symlink product pointing at target, the way
// Program._using_and_products does for a leaf binary.
func symlinkLeaf(pkg *model.Package, name, target string) (model.ProductRecord, error) {
	symlinkPath := pkg.LeafPath(name)
	rel, err := filepath.Rel(filepath.Dir(symlinkPath), target)
	if err != nil {
		return model.ProductRecord{}, fmt.Errorf("relativizing symlink target for %s: %w", name, err)
	}
	return model.ProductRecord{
		Outputs:   []string{symlinkPath},
		Rule:      ruleSymlinkLeaf,
		Implicit:  []string{target},
		Variables: map[string]env.Value{"symlink_target": env.String(rel)},
	}, nil
}
