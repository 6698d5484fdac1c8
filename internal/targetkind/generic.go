package targetkind

import (
	"fmt"

	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

// Generic is the escape hatch for rule-pack-contributed target kinds that
// don't fit Program/Library/Preprocess: a target whose local and using
// deltas are supplied directly by the caller, and whose single optional
// product is built from a caller-named rule, used as given and not checked
// against Project.Rules (spec §6;
// spec.md §3's "target kinds differ only in how they construct the three
// deltas and in what products they emit" is taken at face value here). A
// Generic with no Rule produces no products at all - a pure grouping/alias
// target whose only effect is threading deps and UsingDelta to dependents.
type Generic struct {
	Identifier ident.Ident
	Package    *model.Package
	Deps       []ident.Ident
	LocalDelta []delta.Delta
	UsingDelta []delta.Delta

	Rule    string
	Inputs  []string
	Outputs []string
	VarKeys []string

	IsTransparent bool
	IsLeaf        bool
}

// NewGeneric constructs a Generic target within pkg.
func NewGeneric(pkg *model.Package, name string, deps []ident.Ident, localDelta, usingDelta []delta.Delta, transparent, leaf bool) (*model.Target, error) {
	g := &Generic{
		Identifier:    newIdentifier(pkg, name),
		Package:       pkg,
		Deps:          deps,
		LocalDelta:    localDelta,
		UsingDelta:    usingDelta,
		IsTransparent: transparent,
		IsLeaf:        leaf,
	}
	return model.NewTarget(pkg, name, g)
}

// WithProduct equips g to emit a single product built from rule, consumed
// from a ninja-variable subset of its local environment.
func (g *Generic) WithProduct(rule string, inputs, outputs, varKeys []string) *Generic {
	g.Rule = rule
	g.Inputs = inputs
	g.Outputs = outputs
	g.VarKeys = varKeys
	return g
}

func (g *Generic) DeriveDown(envUp env.Env) (env.Env, error) {
	return envUp, nil
}

func (g *Generic) DeriveLocal(envDown env.Env) (env.Env, error) {
	deltas := append([]delta.Delta{delta.Append("deps", g.Deps)}, g.LocalDelta...)
	return envDown.Derive(deltas...)
}

func (g *Generic) UsingAndProducts(envLocalB env.Env) ([]delta.Delta, []model.ProductRecord, error) {
	if g.Rule == "" {
		return g.UsingDelta, nil, nil
	}

	inputs := make([]string, len(g.Inputs))
	for i, in := range g.Inputs {
		inputs[i] = g.Package.InPath(in)
	}
	outputs := make([]string, len(g.Outputs))
	for i, out := range g.Outputs {
		outputs[i] = g.Package.OutPath(envLocalB, out)
	}

	varEnv := envLocalB
	if len(g.VarKeys) > 0 {
		varEnv = envLocalB.Subset(g.VarKeys...)
	}

	product, err := model.Product(varEnv, outputs, g.Rule, inputs, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building %s: %w", g.Identifier, err)
	}
	return g.UsingDelta, []model.ProductRecord{product}, nil
}

func (g *Generic) Transparent() bool { return g.IsTransparent }
func (g *Generic) Leaf() bool        { return g.IsLeaf }
