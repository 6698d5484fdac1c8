package evalgraph

import (
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
)

// DepsKey is the conventional env key under which a target's declared
// dependencies are stored — the same delta mechanism that threads
// environments also carries the dependency list (spec §4.4 step 3).
const DepsKey = "deps"

// depsFromEnv reads the DepsKey tuple out of e and converts it to a slice
// of Idents. A missing key means no dependencies.
func depsFromEnv(e env.Env) ([]ident.Ident, error) {
	v, ok := e.Lookup(DepsKey)
	if !ok {
		return nil, nil
	}
	tuple, ok := v.AsTuple()
	if !ok {
		return nil, nil
	}
	out := make([]ident.Ident, 0, len(tuple))
	for _, elem := range tuple {
		id, ok := elem.AsIdent()
		if !ok {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
