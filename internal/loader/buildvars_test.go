package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuildVarsMissingFileIsEmpty(t *testing.T) {
	v, err := LoadBuildVars(filepath.Join(t.TempDir(), "BUILD.vars"))
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestLoadBuildVarsParsesNestedToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "BUILD.vars")
	require.NoError(t, os.WriteFile(path, []byte(`
[toolchain]
cc = "clang"
sanitize = true
`), 0o644))

	v, err := LoadBuildVars(path)
	require.NoError(t, err)

	cc, ok := v.Lookup("toolchain", "cc")
	require.True(t, ok)
	assert.Equal(t, "clang", cc)
}

func TestVarsFlattenStringifiesBools(t *testing.T) {
	v := Vars{"toolchain": map[string]any{"cc": "clang", "sanitize": true}}
	flat := v.Flatten()
	assert.Equal(t, "clang", flat["toolchain.cc"])
	assert.Equal(t, "true", flat["toolchain.sanitize"])
}
