package targetkind

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/evalgraph"
	"github.com/cobbleforge/cobble/internal/model"
)

// TestLibraryProductCounts mirrors original_source's
// SimpleLibraryTest.test_product_list: two sources compile to two objects
// plus a single archive product.
func TestLibraryProductCounts(t *testing.T) {
	proj, pkg := newTestProject(t)
	target, err := NewLibrary(pkg, "prog", nil, []string{"foo.c", "bar.c"}, []string{"CFLAGS"}, []string{"UCFLAGS"}, []string{"ULFLAGS"})
	require.NoError(t, err)

	ev := evalgraph.New(lookupFor(proj))
	_, products, err := ev.Evaluate(context.Background(), target, env.Empty())
	require.NoError(t, err)

	var recs []struct{ Rule string }
	for _, v := range products {
		for _, r := range v {
			recs = append(recs, struct{ Rule string }{r.Rule})
		}
	}
	require.Len(t, recs, 3)

	ruleCounts := map[string]int{}
	for _, r := range recs {
		ruleCounts[r.Rule]++
	}
	assert.Equal(t, 1, ruleCounts[ruleArchiveLibrary])
	assert.Equal(t, 2, ruleCounts[ruleCompileObject])
}

func TestLibraryUsingDeltaCarriesUsingFlags(t *testing.T) {
	_, pkg := newTestProject(t)
	libTarget, err := NewLibrary(pkg, "util", nil, []string{"util.c"}, nil, []string{"-DUSING"}, []string{"-lutil"})
	require.NoError(t, err)

	l := libTarget.Kind.(*Library)
	assert.True(t, l.Transparent())

	using, _, err := l.UsingAndProducts(env.Empty())
	require.NoError(t, err)

	applied, err := env.Empty().Derive(using...)
	require.NoError(t, err)

	v, ok := applied.Lookup("cflags")
	require.True(t, ok)
	s, ok := v.AsTuple()
	require.True(t, ok)
	require.Len(t, s, 1)
	str, _ := s[0].AsString()
	assert.Equal(t, "-DUSING", str)
}

// TestLibraryUsingDeltaCarriesImplicitArchive asserts directly on the
// reserved-key channel a library's using-delta rides on: applying the
// using-delta must populate __implicit__ with the archive path, and a
// downstream model.Product call against that derived env must surface it
// in ProductRecord.Implicit (spec §4.6, §8 Scenario 2).
func TestLibraryUsingDeltaCarriesImplicitArchive(t *testing.T) {
	_, pkg := newTestProject(t)
	libTarget, err := NewLibrary(pkg, "libx", nil, []string{"libx.c"}, nil, nil, nil)
	require.NoError(t, err)

	l := libTarget.Kind.(*Library)
	using, _, err := l.UsingAndProducts(env.Empty())
	require.NoError(t, err)

	applied, err := env.Empty().Derive(using...)
	require.NoError(t, err)

	rec, err := model.Product(applied, []string{"out"}, "some_rule", nil, nil, nil)
	require.NoError(t, err)

	var foundArchive bool
	for _, imp := range rec.Implicit {
		if strings.HasSuffix(imp, "liblibx.a") {
			foundArchive = true
		}
	}
	assert.True(t, foundArchive, "expected Implicit to carry the archive path, got %v", rec.Implicit)
}
