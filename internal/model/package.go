package model

import (
	"sort"
	"strings"

	"github.com/cobbleforge/cobble/internal/cobbleerr"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
)

// Package holds a back-reference to its Project, its relpath, and the
// Targets declared within it. Targets self-register into their package on
// creation (spec §3).
type Package struct {
	Project *Project
	Relpath string
	Targets map[string]*Target
}

// NewPackage creates a Package and registers it with project.
func NewPackage(project *Project, relpath string) (*Package, error) {
	pkg := &Package{Project: project, Relpath: relpath, Targets: map[string]*Target{}}
	if err := project.AddPackage(pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// AddTarget registers t under its name, failing with DuplicateTarget if
// the name is already taken within this package (spec §3 invariant 5, §7).
func (p *Package) AddTarget(t *Target) error {
	if _, exists := p.Targets[t.Identifier.TargetNameOrDefault()]; exists {
		return cobbleerr.New(cobbleerr.DuplicateTarget, "duplicate target: %s", t.Identifier)
	}
	p.Targets[t.Identifier.TargetNameOrDefault()] = t
	return nil
}

// InPath resolves a package-relative input path. A leading "@" redirects
// to the project's generated-input tree; a leading "//" redirects to the
// project root; otherwise the path is relative to this package (spec
// §4.3).
func (p *Package) InPath(part string) string {
	switch {
	case strings.HasPrefix(part, "@"):
		return p.Project.GenPath(part[1:])
	case strings.HasPrefix(part, "//"):
		return p.Project.InPath(part[2:])
	default:
		return p.Project.InPath(p.Relpath, part)
	}
}

// OutPath resolves an env-hermetic output path under this package.
func (p *Package) OutPath(e env.Env, parts ...string) string {
	return p.Project.OutPath(e, append([]string{p.Relpath}, parts...)...)
}

// LeafPath resolves a stable-symlink path under this package.
func (p *Package) LeafPath(parts ...string) string {
	return p.Project.LeafPath(append([]string{p.Relpath}, parts...)...)
}

// GenPath resolves a generated-input path under this package.
func (p *Package) GenPath(parts ...string) string {
	return p.Project.GenPath(append([]string{p.Relpath}, parts...)...)
}

// Resolve turns a textual reference (either ":name" or a full "//..."
// identifier) into an Ident, relative to this package (spec §4.3).
func (p *Package) Resolve(reference string) (ident.Ident, error) {
	return ident.ResolveRelative(p.Project.Alias, p.Relpath, reference)
}

// IterTargets yields this package's targets in target-name order.
func (p *Package) IterTargets() []*Target {
	names := make([]string, 0, len(p.Targets))
	for n := range p.Targets {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Target, len(names))
	for i, n := range names {
		out[i] = p.Targets[n]
	}
	return out
}
