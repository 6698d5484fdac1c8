package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/cobbleconfig"
	"github.com/cobbleforge/cobble/internal/cobblelog"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

func newTestProjectForLoader(t *testing.T) (*model.Project, *model.Package) {
	t.Helper()
	proj := model.NewProject("", t.TempDir(), t.TempDir())
	pkg, err := model.NewPackage(proj, "app")
	require.NoError(t, err)
	return proj, pkg
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// newFixtureProject writes a minimal BUILD.conf/environments.yaml/BUILD.vars
// plus a "lib" package and an "app" package depending on it, the same shape
// as the §8 "program depending on library" scenario.
func newFixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "BUILD.conf"), `
seeds = ["//app"]

[[define_key]]
name = "cflags"
type = "string"
`)

	writeFile(t, filepath.Join(root, "environments.yaml"), `
environments:
  - name: debug
    contents:
      cc: gcc
      cflags: ["-g"]
`)

	writeFile(t, filepath.Join(root, "BUILD.vars"), `
[toolchain]
cc = "gcc"
`)

	writeFile(t, filepath.Join(root, "lib/util/BUILD"), `
[[library]]
name = "util"
sources = ["util.c"]
using_cflags = ["-Iutil"]
`)

	writeFile(t, filepath.Join(root, "app/BUILD"), `
[[program]]
name = "prog"
deps = ["//lib/util"]
sources = ["main.c"]
named_env = "debug"
`)

	return root
}

func TestLoadDiscoversDepPackages(t *testing.T) {
	root := newFixtureProject(t)
	cfg, err := cobbleconfig.Load(root)
	require.NoError(t, err)

	proj, err := Load(context.Background(), cfg, cobblelog.NewNoop())
	require.NoError(t, err)

	assert.Contains(t, proj.Packages, "app")
	assert.Contains(t, proj.Packages, "lib/util")

	appPkg := proj.Packages["app"]
	_, ok := appPkg.Targets["prog"]
	assert.True(t, ok)

	libPkg := proj.Packages["lib/util"]
	_, ok = libPkg.Targets["util"]
	assert.True(t, ok)
}

func TestLoadRegistersNamedEnvFromEnvironmentsYAML(t *testing.T) {
	root := newFixtureProject(t)
	cfg, err := cobbleconfig.Load(root)
	require.NoError(t, err)

	proj, err := Load(context.Background(), cfg, cobblelog.NewNoop())
	require.NoError(t, err)

	e, err := proj.NamedEnv("debug")
	require.NoError(t, err)

	v, ok := e.Lookup("cc")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "gcc", s)
}

func TestLoadAppliesKeyRegistryDefinitions(t *testing.T) {
	root := newFixtureProject(t)
	cfg, err := cobbleconfig.Load(root)
	require.NoError(t, err)

	proj, err := Load(context.Background(), cfg, cobblelog.NewNoop())
	require.NoError(t, err)

	assert.True(t, proj.Keys.Known("cflags"))
	assert.False(t, proj.Keys.Known("undeclared_key"))
}

func TestResolveDepsUsesPackageRelativeResolution(t *testing.T) {
	proj, pkg := newTestProjectForLoader(t)
	deps, err := resolveDeps(pkg, []string{"//lib/util:helper", ":sibling"})
	require.NoError(t, err)
	require.Len(t, deps, 2)

	assert.Equal(t, ident.Ident{PackageRelpath: "lib/util", TargetName: "helper"}, deps[0])
	assert.Equal(t, ident.Ident{PackageRelpath: pkg.Relpath, TargetName: "sibling"}, deps[1])
	_ = proj
}
