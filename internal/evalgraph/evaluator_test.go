package evalgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

// fakeKind is a minimal model.Kind used to exercise the evaluator without a
// real targetkind implementation.
type fakeKind struct {
	transparent bool
	leaf        bool
	deps        []string // dependency identifier strings, stored under "deps"
	usingDelta  []delta.Delta
	output      string
}

func (k *fakeKind) DeriveDown(envUp env.Env) (env.Env, error) {
	return envUp, nil
}

func (k *fakeKind) DeriveLocal(envDown env.Env) (env.Env, error) {
	if len(k.deps) == 0 {
		return envDown, nil
	}
	idents := make([]any, len(k.deps))
	for i, d := range k.deps {
		id, err := ident.Parse(d)
		if err != nil {
			return env.Env{}, err
		}
		idents[i] = id
	}
	return envDown.Derive(delta.Append("deps", idents))
}

func (k *fakeKind) UsingAndProducts(envLocalB env.Env) ([]delta.Delta, []model.ProductRecord, error) {
	var products []model.ProductRecord
	if k.output != "" {
		p, err := model.Product(envLocalB, []string{k.output}, "fake_rule", nil, nil, nil)
		if err != nil {
			return nil, nil, err
		}
		products = append(products, p)
	}
	return k.usingDelta, products, nil
}

func (k *fakeKind) Transparent() bool { return k.transparent }
func (k *fakeKind) Leaf() bool        { return k.leaf }

func newTestProject(t *testing.T) *model.Project {
	t.Helper()
	return model.NewProject("", t.TempDir(), t.TempDir())
}

func mustEnv(t *testing.T, contents map[string]any) env.Env {
	t.Helper()
	e, err := env.New(contents)
	require.NoError(t, err)
	return e
}

func lookupFor(proj *model.Project) TargetLookup {
	return func(i ident.Ident) (*model.Target, error) {
		return proj.FindTarget(i)
	}
}

func TestEvaluateLeafNoDeps(t *testing.T) {
	proj := newTestProject(t)
	pkg, err := model.NewPackage(proj, "app")
	require.NoError(t, err)

	target, err := model.NewTarget(pkg, "main", &fakeKind{leaf: true, output: "main.bin"})
	require.NoError(t, err)

	ev := New(lookupFor(proj))
	envUp := mustEnv(t, map[string]any{"cc": "gcc"})

	deps, products, err := ev.Evaluate(context.Background(), target, envUp)
	require.NoError(t, err)
	assert.Len(t, deps, 1)
	assert.Len(t, products, 1)

	key := makeDepKey(target, envUp)
	assert.Contains(t, deps, key)
	require.Len(t, products[key], 1)
	assert.Equal(t, []string{"main.bin"}, products[key][0].Outputs)
}

func TestEvaluateProgramDependsOnLibrary(t *testing.T) {
	proj := newTestProject(t)
	libPkg, err := model.NewPackage(proj, "lib")
	require.NoError(t, err)
	appPkg, err := model.NewPackage(proj, "app")
	require.NoError(t, err)

	libTarget, err := model.NewTarget(libPkg, "util", &fakeKind{
		transparent: true,
		output:      "libutil.a",
		usingDelta:  []delta.Delta{delta.Append("libs", "libutil.a")},
	})
	require.NoError(t, err)

	appTarget, err := model.NewTarget(appPkg, "main", &fakeKind{
		leaf:   true,
		deps:   []string{"//lib:util"},
		output: "main.bin",
	})
	require.NoError(t, err)

	ev := New(lookupFor(proj))
	envUp := mustEnv(t, map[string]any{"cc": "gcc"})

	deps, products, err := ev.Evaluate(context.Background(), appTarget, envUp)
	require.NoError(t, err)

	appKey := makeDepKey(appTarget, envUp)
	libKey := makeDepKey(libTarget, envUp)

	// The program is opaque: its own dep map entry replaces the merged
	// children map rather than being added to it.
	require.Len(t, deps, 1)
	assert.Contains(t, deps, appKey)
	assert.NotContains(t, deps, libKey)

	require.Contains(t, products, appKey)
	require.Contains(t, products, libKey)
	assert.Equal(t, []string{"libutil.a"}, products[libKey][0].Outputs)
	assert.Equal(t, []string{"main.bin"}, products[appKey][0].Outputs)
}

func TestEvaluateDiamondDependency(t *testing.T) {
	proj := newTestProject(t)
	commonPkg, err := model.NewPackage(proj, "common")
	require.NoError(t, err)
	aPkg, err := model.NewPackage(proj, "a")
	require.NoError(t, err)
	bPkg, err := model.NewPackage(proj, "b")
	require.NoError(t, err)
	appPkg, err := model.NewPackage(proj, "app")
	require.NoError(t, err)

	commonTarget, err := model.NewTarget(commonPkg, "base", &fakeKind{transparent: true, output: "base.a"})
	require.NoError(t, err)
	_ = commonTarget

	_, err = model.NewTarget(aPkg, "a", &fakeKind{
		transparent: true,
		deps:        []string{"//common:base"},
		output:      "a.a",
	})
	require.NoError(t, err)

	_, err = model.NewTarget(bPkg, "b", &fakeKind{
		transparent: true,
		deps:        []string{"//common:base"},
		output:      "b.a",
	})
	require.NoError(t, err)

	appTarget, err := model.NewTarget(appPkg, "main", &fakeKind{
		leaf:   true,
		deps:   []string{"//a:a", "//b:b"},
		output: "main.bin",
	})
	require.NoError(t, err)

	ev := New(lookupFor(proj))
	envUp := mustEnv(t, map[string]any{})

	deps, products, err := ev.Evaluate(context.Background(), appTarget, envUp)
	require.NoError(t, err)
	require.Len(t, deps, 1)

	// base, a, b, and app each produced exactly one product record, and
	// the diamond does not cause base to be evaluated or registered twice.
	assert.Len(t, products, 4)
}

func TestEvaluateCycleDetected(t *testing.T) {
	proj := newTestProject(t)
	pkg, err := model.NewPackage(proj, "cyc")
	require.NoError(t, err)

	kindA := &fakeKind{deps: []string{"//cyc:b"}}
	kindB := &fakeKind{deps: []string{"//cyc:a"}}

	_, err = model.NewTarget(pkg, "a", kindA)
	require.NoError(t, err)
	_, err = model.NewTarget(pkg, "b", kindB)
	require.NoError(t, err)

	target, err := proj.FindTarget(ident.Ident{PackageRelpath: "cyc", TargetName: "a"})
	require.NoError(t, err)

	ev := New(lookupFor(proj))
	envUp := mustEnv(t, map[string]any{})

	_, _, err = ev.Evaluate(context.Background(), target, envUp)
	require.Error(t, err)
}

func TestEvaluateIsMemoized(t *testing.T) {
	proj := newTestProject(t)
	pkg, err := model.NewPackage(proj, "app")
	require.NoError(t, err)

	target, err := model.NewTarget(pkg, "main", &fakeKind{leaf: true, output: "main.bin"})
	require.NoError(t, err)

	ev := New(lookupFor(proj))
	envUp := mustEnv(t, map[string]any{})

	deps1, products1, err := ev.Evaluate(context.Background(), target, envUp)
	require.NoError(t, err)
	deps2, products2, err := ev.Evaluate(context.Background(), target, envUp)
	require.NoError(t, err)

	key := makeDepKey(target, envUp)
	assert.Equal(t, deps1[key].Rank, deps2[key].Rank)
	assert.Equal(t, len(products1), len(products2))
}
