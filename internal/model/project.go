// Package model implements the entity layer of spec §3: Project, Package,
// Target, plus the SPEC_FULL §12 supplements (KeyRegistry, subprojects) —
// grounded on original_source/cobble/__init__.py's Project/Package/Target
// and src/cobble/loader.py's key-registry/subproject mechanisms.
package model

import (
	"path/filepath"
	"sort"

	"github.com/cobbleforge/cobble/internal/cobbleerr"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
)

// RuleDef is a downstream-rule definition as registered by a loader module:
// the set of modules that defined it, plus its argument map (opaque to the
// core beyond equality comparison, spec §6).
type RuleDef struct {
	DefiningModules map[string]struct{}
	Args            map[string]string
}

// Project holds the source root, output root, all loaded Packages, all
// named Envs, and the downstream-rule registry (spec §3). It is built by a
// loader and is read-only once loading completes.
type Project struct {
	Alias     string
	Root      string
	OutRoot   string
	Packages  map[string]*Package
	NamedEnvs map[string]env.Env
	Rules     map[string]RuleDef
	Keys      *KeyRegistry

	// Subprojects holds child projects keyed by the alias under which
	// they were mounted (SPEC_FULL §12.3; src/cobble/loader.py's
	// _build_conf_subproject).
	Subprojects map[string]*Project
}

// NewProject creates an empty Project rooted at root, emitting build
// outputs under outRoot.
func NewProject(alias, root, outRoot string) *Project {
	return &Project{
		Alias:       alias,
		Root:        root,
		OutRoot:     outRoot,
		Packages:    map[string]*Package{},
		NamedEnvs:   map[string]env.Env{},
		Rules:       map[string]RuleDef{},
		Keys:        NewKeyRegistry(),
		Subprojects: map[string]*Project{},
	}
}

// AddPackage registers p under its relpath, failing with DuplicatePackage
// if the relpath is already taken (spec §3 invariant 5, §7).
func (p *Project) AddPackage(pkg *Package) error {
	if _, exists := p.Packages[pkg.Relpath]; exists {
		return cobbleerr.New(cobbleerr.DuplicatePackage, "duplicate package: %s", pkg.Relpath)
	}
	p.Packages[pkg.Relpath] = pkg
	return nil
}

// AddNamedEnv registers a named Env, failing with DuplicateEnv if the name
// is already taken (spec §7).
func (p *Project) AddNamedEnv(name string, e env.Env) error {
	if _, exists := p.NamedEnvs[name]; exists {
		return cobbleerr.New(cobbleerr.DuplicateEnv, "duplicate environment: %s", name)
	}
	p.NamedEnvs[name] = e
	return nil
}

// NamedEnv looks up a named Env, failing with UnknownEnvBase if absent
// (spec §7; the same lookup path serves both a program target's
// down-derivation base and a `base=` reference while defining another
// named Env).
func (p *Project) NamedEnv(name string) (env.Env, error) {
	e, ok := p.NamedEnvs[name]
	if !ok {
		return env.Env{}, cobbleerr.New(cobbleerr.UnknownEnvBase, "unknown environment: %s", name)
	}
	return e, nil
}

// AddRule registers a downstream-rule definition contributed by module,
// failing with IncompatibleRule if a different argument map for the same
// rule name was already registered by another module (spec §7).
func (p *Project) AddRule(module, name string, args map[string]string) error {
	existing, ok := p.Rules[name]
	if !ok {
		p.Rules[name] = RuleDef{
			DefiningModules: map[string]struct{}{module: {}},
			Args:            args,
		}
		return nil
	}
	if !argsEqual(existing.Args, args) {
		return cobbleerr.New(cobbleerr.IncompatibleRule,
			"rule %s defined in %s is incompatible with previous definition", name, module)
	}
	existing.DefiningModules[module] = struct{}{}
	return nil
}

func argsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// AddSubproject mounts child under alias (SPEC_FULL §12.3).
func (p *Project) AddSubproject(alias string, child *Project) {
	p.Subprojects[alias] = child
}

// FindTarget resolves an Ident to its Target, following Alias into a
// mounted subproject when set, failing with UnknownTarget if the package or
// target name is not present (spec §7).
func (p *Project) FindTarget(i ident.Ident) (*Target, error) {
	proj := p
	if i.Alias != "" {
		sub, ok := p.Subprojects[i.Alias]
		if !ok {
			return nil, cobbleerr.New(cobbleerr.UnknownTarget, "no such subproject: %q (referenced by %s)", i.Alias, i)
		}
		proj = sub
	}
	pkg, ok := proj.Packages[i.PackageRelpath]
	if !ok {
		return nil, cobbleerr.New(cobbleerr.UnknownTarget, "no such target: %s", i)
	}
	t, ok := pkg.Targets[i.TargetNameOrDefault()]
	if !ok {
		return nil, cobbleerr.New(cobbleerr.UnknownTarget, "no such target: %s", i)
	}
	return t, nil
}

// InPath joins parts under the source root.
func (p *Project) InPath(parts ...string) string {
	return filepath.Join(append([]string{p.Root}, parts...)...)
}

// OutPath joins parts under outroot/env/<digest>/..., the hermeticity
// boundary that gives every environment its own output tree (spec §4.3).
func (p *Project) OutPath(e env.Env, parts ...string) string {
	return filepath.Join(append([]string{p.OutRoot, "env", e.Digest()}, parts...)...)
}

// LeafPath joins parts under outroot/latest/..., the stable-symlink tree.
func (p *Project) LeafPath(parts ...string) string {
	return filepath.Join(append([]string{p.OutRoot, "latest"}, parts...)...)
}

// GenPath joins parts under outroot/gen/..., the generated-input tree.
func (p *Project) GenPath(parts ...string) string {
	return filepath.Join(append([]string{p.OutRoot, "gen"}, parts...)...)
}

// IterTargets yields every Target across every Package, in an unspecified
// but repeatable (package-relpath-sorted) order.
func (p *Project) IterTargets() []*Target {
	var out []*Target
	for _, relpath := range sortedKeys(p.Packages) {
		out = append(out, p.Packages[relpath].IterTargets()...)
	}
	return out
}

// IterLeaves yields every leaf Target (spec glossary: "leaf target").
func (p *Project) IterLeaves() []*Target {
	var out []*Target
	for _, t := range p.IterTargets() {
		if t.Kind.Leaf() {
			out = append(out, t)
		}
	}
	return out
}

// IterFiles yields BUILD.conf plus every package's BUILD file, the
// regeneration-dependency list of SPEC_FULL §12.1 (spec §6 output item 4).
func (p *Project) IterFiles() []string {
	files := []string{p.InPath("BUILD.conf")}
	for _, relpath := range sortedKeys(p.Packages) {
		files = append(files, p.Packages[relpath].InPath("BUILD"))
	}
	return files
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
