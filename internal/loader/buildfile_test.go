package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/model"
	"github.com/cobbleforge/cobble/internal/targetkind"
)

func newLoaderTestPackage(t *testing.T) *model.Package {
	t.Helper()
	root := t.TempDir()
	proj := model.NewProject("", root, t.TempDir())
	pkg, err := model.NewPackage(proj, "gen")
	require.NoError(t, err)
	return pkg
}

func TestLoadBuildFileParsesPreprocessAndGeneric(t *testing.T) {
	pkg := newLoaderTestPackage(t)
	require.NoError(t, os.WriteFile(filepath.Join(pkg.Project.Root, "gen", "BUILD"), []byte(`
[[preprocess]]
name = "gen_proto"
inputs = ["schema.proto"]
outputs = ["schema.pb.c"]
rule = "protoc"
var_keys = ["protoc_flags"]
output_key = "sources"

[[generic]]
name = "custom"
rule = "custom_rule"
inputs = ["in.txt"]
outputs = ["out.txt"]
transparent = false
leaf = true
`), 0o644))

	deps, err := LoadBuildFile(pkg)
	require.NoError(t, err)
	assert.Empty(t, deps)

	pp, ok := pkg.Targets["gen_proto"]
	require.True(t, ok)
	preprocess, ok := pp.Kind.(*targetkind.Preprocess)
	require.True(t, ok)
	assert.Equal(t, "sources", preprocess.OutputKey)

	generic, ok := pkg.Targets["custom"].Kind.(*targetkind.Generic)
	require.True(t, ok)
	assert.True(t, generic.Leaf())
	assert.False(t, generic.Transparent())
	assert.Equal(t, "custom_rule", generic.Rule)
}

func TestLoadBuildFileParsesTestKind(t *testing.T) {
	pkg := newLoaderTestPackage(t)
	require.NoError(t, os.WriteFile(filepath.Join(pkg.Project.Root, "gen", "BUILD"), []byte(`
[[test]]
name = "util_test"
sources = ["util_test.c"]
`), 0o644))

	_, err := LoadBuildFile(pkg)
	require.NoError(t, err)

	target, ok := pkg.Targets["util_test"]
	require.True(t, ok)
	assert.True(t, target.Kind.Leaf())
}

func TestLoadBuildFileMissingFileReturnsNothing(t *testing.T) {
	pkg := newLoaderTestPackage(t)
	deps, err := LoadBuildFile(pkg)
	require.NoError(t, err)
	assert.Nil(t, deps)
}
