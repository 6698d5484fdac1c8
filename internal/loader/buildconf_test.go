package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToolVersionsPassesWhenSatisfied(t *testing.T) {
	conf := &BuildConf{RequiresToolVersion: map[string]string{"cc": ">=9.0.0"}}
	vars := Vars{"toolchain_versions": map[string]any{"cc": "10.2.0"}}

	assert.NoError(t, conf.ValidateToolVersions(vars))
}

func TestValidateToolVersionsFailsWhenUnsatisfied(t *testing.T) {
	conf := &BuildConf{RequiresToolVersion: map[string]string{"cc": ">=9.0.0"}}
	vars := Vars{"toolchain_versions": map[string]any{"cc": "8.1.0"}}

	err := conf.ValidateToolVersions(vars)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not satisfy")
}

func TestValidateToolVersionsFailsWhenVersionMissing(t *testing.T) {
	conf := &BuildConf{RequiresToolVersion: map[string]string{"cc": ">=9.0.0"}}

	err := conf.ValidateToolVersions(Vars{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reported version")
}

func TestValidateToolVersionsNoOpWhenUnset(t *testing.T) {
	conf := &BuildConf{}
	assert.NoError(t, conf.ValidateToolVersions(Vars{}))
}
