package targetkind

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/evalgraph"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

// TestTestProductCounts mirrors TestProgramProductCounts: one source, one
// run_c_test product alongside the usual compile/link/symlink set - except
// Test's UsingAndProducts swaps the symlink for a run_c_test stamp.
func TestTestProductCounts(t *testing.T) {
	proj, pkg := newTestProject(t)
	target, err := NewTest(pkg, "unit", nil, []string{"foo.c"}, nil, nil, "")
	require.NoError(t, err)

	ev := evalgraph.New(lookupFor(proj))
	_, products, err := ev.Evaluate(context.Background(), target, env.Empty())
	require.NoError(t, err)

	ruleCounts := map[string]int{}
	for _, v := range products {
		for _, r := range v {
			ruleCounts[r.Rule]++
		}
	}
	assert.Equal(t, 1, ruleCounts[ruleCompileObject])
	assert.Equal(t, 1, ruleCounts[ruleLinkProgram])
	assert.Equal(t, 1, ruleCounts[ruleRunTest])
}

// TestDependentCarriesProgramSelfImplicit mirrors the review's concern for
// program.go/test.go: a program's own identifier must reach a dependent's
// Implicit field through the model.ReservedImplicit channel, the same
// channel a library's archive path rides, so a further dependent (a c_test
// wrapping this program, per test.go's doc comment) can discover the
// self-registration implicitly.
func TestDependentCarriesProgramSelfImplicit(t *testing.T) {
	proj, pkg := newTestProject(t)

	progTarget, err := NewProgram(pkg, "helper", nil, []string{"helper.c"}, nil, nil, "")
	require.NoError(t, err)

	testTarget, err := NewTest(pkg, "unit", []ident.Ident{progTarget.Identifier}, []string{"unit.c"}, nil, nil, "")
	require.NoError(t, err)

	ev := evalgraph.New(lookupFor(proj))
	_, products, err := ev.Evaluate(context.Background(), testTarget, env.Empty())
	require.NoError(t, err)

	var link *model.ProductRecord
	for _, v := range products {
		for i := range v {
			if v[i].Rule == ruleLinkProgram {
				link = &v[i]
			}
		}
	}
	require.NotNil(t, link)

	var foundSelf bool
	for _, imp := range link.Implicit {
		if strings.Contains(imp, "helper") {
			foundSelf = true
		}
	}
	assert.True(t, foundSelf, "expected link record's Implicit to carry the depended-on program's own identifier, got %v", link.Implicit)
}
