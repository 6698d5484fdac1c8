package model

import (
	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
)

// Kind is the small behavior surface every target kind implements (spec §9
// design note: "polymorphism is over four or five small behaviors"). A sum
// type over Kind implementations (internal/targetkind) replaces a class
// hierarchy.
type Kind interface {
	// DeriveDown computes the environment passed to this target's
	// children from the incoming environment (spec §4.4 step 2). Most
	// kinds return env_up unchanged; program-like leaves substitute a
	// named environment.
	DeriveDown(envUp env.Env) (env.Env, error)

	// DeriveLocal applies this target's local delta to env_down,
	// producing env_local_a — the environment whose "deps" key names
	// this target's dependencies (spec §4.4 step 3).
	DeriveLocal(envDown env.Env) (env.Env, error)

	// UsingAndProducts computes this target's using-delta and its own
	// build products from env_local_b, the environment after dependency
	// using-deltas have been folded in (spec §4.4 step 7).
	UsingAndProducts(envLocalB env.Env) (using []delta.Delta, products []ProductRecord, err error)

	// Transparent reports whether this target's using-delta continues
	// to flow through to grand-dependents (true: library-like) or is
	// consumed at this target (false: program-like link boundary).
	Transparent() bool

	// Leaf reports whether this target is an emission root.
	Leaf() bool
}

// Target is a named build unit within a Package: an Ident, a Kind carrying
// its three-delta behavior, and nothing else — the evaluation cache lives
// in internal/evalgraph.Evaluator, keyed by (Target, env_up digest), since
// it needs the Evaluator's own result representation (spec §3, §4.4).
type Target struct {
	Identifier ident.Ident
	Package    *Package
	Kind       Kind
}

// NewTarget creates a Target named name within pkg and self-registers it
// (spec §3: "Targets self-register into their package on creation").
func NewTarget(pkg *Package, name string, kind Kind) (*Target, error) {
	t := &Target{
		Identifier: ident.Ident{Alias: pkg.Project.Alias, PackageRelpath: pkg.Relpath, TargetName: name},
		Package:    pkg,
		Kind:       kind,
	}
	if err := pkg.AddTarget(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Target) String() string {
	return t.Identifier.String()
}
