package targetkind

import (
	"fmt"

	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

// Test is a Program variant whose leaf product is a run_c_test edge instead
// of a stable symlink (SPEC_FULL §12.4). The CLI has no subcommand that
// selects test leaves on their own. original_source/cobble/target/c_test.py
// does not itself define a target kind - it exercises Program/Library with
// unittest - so Test is built directly from Program's shape rather than
// adapted from a dedicated Python class.
type Test struct {
	Program
}

// NewTest constructs a Test target within pkg.
func NewTest(pkg *model.Package, name string, deps []ident.Ident, sources, cflags, lflags []string, namedEnv string, extraDelta ...delta.Delta) (*model.Target, error) {
	t := &Test{
		Program: Program{
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
		},
	}
	return model.NewTarget(pkg, name, t)
}

func (t *Test) UsingAndProducts(envLocalB env.Env) ([]delta.Delta, []model.ProductRecord, error) {
	sources := stringsFromEnv(envLocalB, "sources")
	objects, objFiles, err := compileSources(t.Package, sources, envLocalB, compileKeys)
	if err != nil {
		return nil, nil, err
	}

	programEnv, err := envLocalB.Derive(delta.Prepend("linksrcs", objFiles))
	if err != nil {
		return nil, nil, fmt.Errorf("deriving link environment for %s: %w", t.Identifier, err)
	}
	programPath := t.Package.OutPath(programEnv, t.Identifier.TargetNameOrDefault())

	program, err := model.Product(programEnv, []string{programPath}, ruleLinkProgram, objFiles, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("linking %s: %w", t.Identifier, err)
	}
	program.Variables = programEnv.Subset(linkKeys...).DictCopy()

	stampPath := t.Package.OutPath(programEnv, t.Identifier.TargetNameOrDefault()+".test-passed")
	runTest, err := model.Product(env.Empty(), []string{stampPath}, ruleRunTest, []string{programPath}, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("registering test run for %s: %w", t.Identifier, err)
	}

	using := []delta.Delta{delta.Append(model.ReservedImplicit, []ident.Ident{t.Identifier})}
	products := append(objects, program, runTest)
	return using, products, nil
}

func (t *Test) Leaf() bool { return true }
