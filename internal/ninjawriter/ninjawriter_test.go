package ninjawriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/model"
)

func TestEscapePathEscapesSpacesAndColons(t *testing.T) {
	assert.Equal(t, "foo$ bar", escapePath("foo bar"))
	assert.Equal(t, "foo$:bar", escapePath("foo:bar"))
	assert.Equal(t, "foo$$$ bar", escapePath("foo$ bar"))
}

func TestBuildWritesOutputsInputsImplicitOrderOnly(t *testing.T) {
	var buf strings.Builder
	nw := New(&buf)
	nw.Build(model.ProductRecord{
		Outputs:   []string{"out/foo.o"},
		Rule:      "compile_c_object",
		Inputs:    []string{"foo.c"},
		Implicit:  []string{"foo.h"},
		OrderOnly: []string{"gen/stamp"},
	})
	require.NoError(t, nw.Flush())

	out := buf.String()
	assert.Contains(t, out, "build out/foo.o: compile_c_object foo.c | foo.h || gen/stamp")
}

func TestBuildEmitsSortedVariableLines(t *testing.T) {
	var buf strings.Builder
	nw := New(&buf)
	nw.Build(model.ProductRecord{
		Outputs: []string{"out/foo.o"},
		Rule:    "compile_c_object",
		Variables: map[string]env.Value{
			"cflags": env.Tuple(env.String("-O2"), env.String("-Wall")),
			"cc":     env.String("gcc"),
		},
	})
	require.NoError(t, nw.Flush())

	out := buf.String()
	ccIdx := strings.Index(out, "cc = gcc")
	cflagsIdx := strings.Index(out, "cflags = -O2 -Wall")
	require.GreaterOrEqual(t, ccIdx, 0)
	require.GreaterOrEqual(t, cflagsIdx, 0)
	assert.Less(t, ccIdx, cflagsIdx, "variables should render in sorted key order")
}

func TestWriteAllEmitsBuiltinRulesThenRecords(t *testing.T) {
	var buf strings.Builder
	err := WriteAll(&buf, []model.ProductRecord{
		{Outputs: []string{"out/prog"}, Rule: "link_c_program", Inputs: []string{"out/foo.o"}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "rule compile_c_object")
	assert.Contains(t, out, "rule link_c_program")
	assert.Contains(t, out, "build out/prog: link_c_program out/foo.o")

	rulesIdx := strings.Index(out, "rule compile_c_object")
	buildIdx := strings.Index(out, "build out/prog")
	assert.Less(t, rulesIdx, buildIdx)
}
