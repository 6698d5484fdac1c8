package targetkind

import (
	"fmt"

	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

// Library compiles sources into an archive consumed by transitive
// dependents: transparent (its using-delta propagates through grand-
// dependents), grounded on c.py's Library.
type Library struct {
	CTarget
	UsingCFlags []string
	UsingLFlags []string
}

// NewLibrary constructs a Library target within pkg.
func NewLibrary(pkg *model.Package, name string, deps []ident.Ident, sources, cflags, usingCFlags, usingLFlags []string) (*model.Target, error) {
	l := &Library{
		CTarget: CTarget{
			Identifier: newIdentifier(pkg, name),
			Package:    pkg,
			Deps:       deps,
			Sources:    sources,
			CFlags:     cflags,
		},
		UsingCFlags: usingCFlags,
		UsingLFlags: usingLFlags,
	}
	return model.NewTarget(pkg, name, l)
}

func (l *Library) UsingAndProducts(envLocalB env.Env) ([]delta.Delta, []model.ProductRecord, error) {
	sources := stringsFromEnv(envLocalB, "sources")
	objects, objFiles, err := compileSources(l.Package, sources, envLocalB, compileKeys)
	if err != nil {
		return nil, nil, err
	}

	out := l.Package.OutPath(envLocalB, "lib"+l.Identifier.TargetNameOrDefault()+".a")
	library, err := model.Product(envLocalB, []string{out}, ruleArchiveLibrary, objFiles, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("archiving %s: %w", l.Identifier, err)
	}
	library.Variables = envLocalB.Subset(archiveKeys...).DictCopy()

	using := append([]delta.Delta{
		delta.Append("cflags", l.UsingCFlags),
		delta.Append("lflags", l.UsingLFlags),
	}, delta.Append(model.ReservedImplicit, []string{out}), delta.Append("linksrcs", []string{out}))

	products := append(objects, library)
	return using, products, nil
}

func (l *Library) Transparent() bool { return true }
func (l *Library) Leaf() bool        { return false }
