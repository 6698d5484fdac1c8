package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/env"
)

func TestSplitAssignmentSplitsOnFirstEquals(t *testing.T) {
	key, value, ok := splitAssignment("cc.version=10.2.0")
	require.True(t, ok)
	assert.Equal(t, "cc.version", key)
	assert.Equal(t, "10.2.0", value)
}

func TestSplitAssignmentRejectsMissingEquals(t *testing.T) {
	_, _, ok := splitAssignment("no-equals-here")
	assert.False(t, ok)
}

func TestParseSetOverridesAppliesAsOverrideDeltas(t *testing.T) {
	deltas, err := parseSetOverrides([]string{"greeting=hello"})
	require.NoError(t, err)
	require.Len(t, deltas, 1)

	applied, err := env.Empty().Derive(deltas...)
	require.NoError(t, err)
	v, ok := applied.Lookup("greeting")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "hello", s)
}

func TestParseSetOverridesRejectsBadAssignment(t *testing.T) {
	_, err := parseSetOverrides([]string{"bad"})
	assert.Error(t, err)
}

func TestIsTruthyAcceptsCommonSpellings(t *testing.T) {
	for _, s := range []string{"1", "true", "True", "yes", "on"} {
		assert.True(t, isTruthy(s), s)
	}
	for _, s := range []string{"0", "false", "", "off"} {
		assert.False(t, isTruthy(s), s)
	}
}
