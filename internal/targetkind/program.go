package targetkind

import (
	"fmt"

	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

// compileKeys/linkKeys restrict a C-family target's ninja variables to the
// keys that rule actually consumes, lifted verbatim from c.py's
// self._compile_keys/self._link_keys/self._archive_keys.
var (
	compileKeys = []string{"cc", "cflags"}
	linkKeys    = []string{"cc", "linksrcs", "lflags"}
	archiveKeys = []string{"ar", "ranlib"}
)

// Program compiles sources and links them into a binary: an opaque leaf
// target whose down-derivation substitutes a named environment (spec §4.4
// step 2's "program-like leaf targets" case), grounded on c.py's Program.
type Program struct {
	CTarget
	LFlags []string

	// NamedEnv is the project-level environment Program substitutes for
	// env_up during down-derivation. An empty NamedEnv leaves env_up
	// unchanged, which is useful for tests that don't need a project with
	// named environments configured.
	NamedEnv string

	// ExtraDelta is applied to the substituted named environment before it
	// is handed to dependencies (spec §4.4 step 2's "extra delta").
	ExtraDelta []delta.Delta
}

// NewProgram constructs a Program target within pkg.
func NewProgram(pkg *model.Package, name string, deps []ident.Ident, sources, cflags, lflags []string, namedEnv string, extraDelta ...delta.Delta) (*model.Target, error) {
	p := &Program{
		CTarget: CTarget{
			Identifier: newIdentifier(pkg, name),
			Package:    pkg,
			Deps:       deps,
			Sources:    sources,
			CFlags:     cflags,
		},
		LFlags:     lflags,
		NamedEnv:   namedEnv,
		ExtraDelta: extraDelta,
	}
	return model.NewTarget(pkg, name, p)
}

func (p *Program) DeriveDown(envUp env.Env) (env.Env, error) {
	if p.NamedEnv == "" {
		return envUp, nil
	}
	base, err := p.Package.Project.NamedEnv(p.NamedEnv)
	if err != nil {
		return env.Env{}, fmt.Errorf("deriving down-environment for %s: %w", p.Identifier, err)
	}
	return base.Derive(p.ExtraDelta...)
}

func (p *Program) DeriveLocal(envDown env.Env) (env.Env, error) {
	deltas := append(p.localDeltas(), delta.Append("lflags", p.LFlags))
	return envDown.Derive(deltas...)
}

func (p *Program) UsingAndProducts(envLocalB env.Env) ([]delta.Delta, []model.ProductRecord, error) {
	sources := stringsFromEnv(envLocalB, "sources")
	objects, objFiles, err := compileSources(p.Package, sources, envLocalB, compileKeys)
	if err != nil {
		return nil, nil, err
	}

	programEnv, err := envLocalB.Derive(delta.Prepend("linksrcs", objFiles))
	if err != nil {
		return nil, nil, fmt.Errorf("deriving link environment for %s: %w", p.Identifier, err)
	}
	programPath := p.Package.OutPath(programEnv, p.Identifier.TargetNameOrDefault())

	program, err := model.Product(programEnv, []string{programPath}, ruleLinkProgram, objFiles, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("linking %s: %w", p.Identifier, err)
	}
	program.Variables = programEnv.Subset(linkKeys...).DictCopy()

	symlink, err := symlinkLeaf(p.Package, p.Identifier.TargetNameOrDefault(), programPath)
	if err != nil {
		return nil, nil, err
	}

	using := []delta.Delta{delta.Append(model.ReservedImplicit, []ident.Ident{p.Identifier})}
	products := append(objects, program, symlink)
	return using, products, nil
}

func (p *Program) Transparent() bool { return false }
func (p *Program) Leaf() bool        { return true }
