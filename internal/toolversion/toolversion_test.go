package toolversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/env"
)

func TestSatisfiesChecksConstraint(t *testing.T) {
	ok, err := Satisfies("10.2.0", ">=9.0.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Satisfies("8.1.0", ">=9.0.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSatisfiesRejectsBadConstraint(t *testing.T) {
	_, err := Satisfies("1.0.0", "not-a-constraint")
	assert.Error(t, err)
}

func TestAtLeastPredicateEvaluatesAgainstDict(t *testing.T) {
	pred, err := AtLeastPredicate("toolchain.cc_version", ">=9.0.0")
	require.NoError(t, err)

	assert.True(t, pred(map[string]env.Value{"toolchain.cc_version": env.String("11.0.0")}))
	assert.False(t, pred(map[string]env.Value{"toolchain.cc_version": env.String("5.0.0")}))
	assert.False(t, pred(map[string]env.Value{}))
}
