package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
)

// TestProductCombinesReservedImplicitStrings mirrors a library's
// using-delta: __implicit__ carries a tuple of strings (an archive path).
func TestProductCombinesReservedImplicitStrings(t *testing.T) {
	e, err := env.New(map[string]any{ReservedImplicit: []string{"out/libx.a"}})
	require.NoError(t, err)

	rec, err := Product(e, []string{"out/prog"}, "link", nil, []string{"explicit.o"}, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"explicit.o", "out/libx.a"}, rec.Implicit)
	_, ok := rec.Variables[ReservedImplicit]
	assert.False(t, ok, "reserved key must not leak into Variables")
}

// TestProductCombinesReservedImplicitIdents mirrors a program/test's
// self-registration contribution: __implicit__ carries a tuple of idents,
// not strings, since that is what freezing []ident.Ident produces
// (env.FromIdent, KindIdent) rather than a string-kind Value.
func TestProductCombinesReservedImplicitIdents(t *testing.T) {
	id := ident.Ident{PackageRelpath: "pkg", TargetName: "helper"}
	e, err := env.New(map[string]any{ReservedImplicit: []ident.Ident{id}})
	require.NoError(t, err)

	rec, err := Product(e, []string{"out/prog"}, "link", nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{id.String()}, rec.Implicit)
}

func TestProductCombinesReservedOrderOnly(t *testing.T) {
	e, err := env.New(map[string]any{ReservedOrderOnly: []string{"gen/header.h"}})
	require.NoError(t, err)

	rec, err := Product(e, []string{"out/obj.o"}, "compile", nil, nil, []string{"explicit-order"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"explicit-order", "gen/header.h"}, rec.OrderOnly)
}

func TestProductOmitsEmptyImplicitAndOrderOnly(t *testing.T) {
	rec, err := Product(env.Empty(), []string{"out/obj.o"}, "compile", nil, nil, nil)
	require.NoError(t, err)

	assert.Nil(t, rec.Implicit)
	assert.Nil(t, rec.OrderOnly)
}
