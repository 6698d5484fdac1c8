package graphview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

func rec(outputs []string, rule string, inputs ...string) model.ProductRecord {
	return model.ProductRecord{Outputs: outputs, Rule: rule, Inputs: inputs}
}

func TestKeyIsSortedJoin(t *testing.T) {
	assert.Equal(t, "a.o b.o", Key([]string{"b.o", "a.o"}))
}

func TestDedupCollapsesBytewiseEqualRecords(t *testing.T) {
	a := rec([]string{"out/foo.o"}, "cc", "foo.c")
	b := rec([]string{"out/foo.o"}, "cc", "foo.c")
	out, err := Dedup([]model.ProductRecord{a, b})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

// TestDedupSameLibraryUnderOneEnv: the same library archive emitted twice
// under one environment (identical records for the same output path)
// collapses to one product.
func TestDedupSameLibraryUnderOneEnv(t *testing.T) {
	a := rec([]string{"out/env/aaaa/libutil.a"}, "ar", "util.o")
	b := rec([]string{"out/env/aaaa/libutil.a"}, "ar", "util.o")
	out, err := Dedup([]model.ProductRecord{a, b})
	require.NoError(t, err)
	require.Len(t, out, 1)
}

// TestDedupConflictingRecordsFails ports the §8 "duplicate product conflict"
// scenario: same output path, different rule, must fail with
// IncompatibleDuplicateProducts.
func TestDedupConflictingRecordsFails(t *testing.T) {
	a := rec([]string{"out/foo.o"}, "cc", "foo.c")
	b := rec([]string{"out/foo.o"}, "cxx", "foo.cc")
	_, err := Dedup([]model.ProductRecord{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IncompatibleDuplicateProducts")
}

func TestStableSortDeemphasizesEnvDigest(t *testing.T) {
	digest1 := "000000000000000000000000000000000000000a"
	digest2 := "000000000000000000000000000000000000000b"
	a := rec([]string{"out/env/" + digest2 + "/foo.o"}, "cc")
	b := rec([]string{"out/env/" + digest1 + "/foo.o"}, "cc")

	sorted := StableSort([]model.ProductRecord{a, b})
	require.Len(t, sorted, 2)
	// Same logical path under both digests -> tiebreak falls back to the raw
	// key, so the lexicographically smaller raw digest sorts first.
	assert.Equal(t, b.Outputs, sorted[0].Outputs)
	assert.Equal(t, a.Outputs, sorted[1].Outputs)
}

func TestStableSortOrdersDistinctOutputs(t *testing.T) {
	a := rec([]string{"out/z.o"}, "cc")
	b := rec([]string{"out/a.o"}, "cc")
	sorted := StableSort([]model.ProductRecord{a, b})
	require.Len(t, sorted, 2)
	assert.Equal(t, b.Outputs, sorted[0].Outputs)
	assert.Equal(t, a.Outputs, sorted[1].Outputs)
}

func TestPhonyRecordGroupsLeafOutputs(t *testing.T) {
	target, err := ident.Parse("//app:prog")
	require.NoError(t, err)

	leaf := []model.ProductRecord{
		rec([]string{"out/foo.o"}, "cc"),
		rec([]string{"out/bar.o"}, "cc"),
		rec([]string{"out/prog"}, "link"),
	}

	p := PhonyRecord(target, leaf)
	assert.Equal(t, []string{target.String()}, p.Outputs)
	assert.Equal(t, "phony", p.Rule)
	assert.ElementsMatch(t, []string{"out/foo.o", "out/bar.o", "out/prog"}, p.Implicit)
}

func TestSourceFilesListsBuildConfAndPackageFiles(t *testing.T) {
	proj := model.NewProject("", t.TempDir(), t.TempDir())
	_, err := model.NewPackage(proj, "app")
	require.NoError(t, err)
	_, err = model.NewPackage(proj, "lib/util")
	require.NoError(t, err)

	srcs := SourceFiles(proj)
	require.Len(t, srcs, 3)
	assert.Contains(t, srcs[0], "BUILD.conf")
}
