package evalgraph

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cobbleforge/cobble/internal/cobbleerr"
	"github.com/cobbleforge/cobble/internal/cobblelog"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

var tracer = otel.Tracer("github.com/cobbleforge/cobble/internal/evalgraph")

type cacheEntry struct {
	deps     DepMap
	products Products
}

// TargetLookup resolves a dependency Ident to its Target, the shape of
// model.Project.FindTarget. Taking it as a function rather than a
// *model.Project lets tests exercise the evaluator against a handful of
// in-memory targets without constructing a full Project.
type TargetLookup func(i ident.Ident) (*model.Target, error)

// Evaluator runs the contextual DAG walk of spec §4.4. It owns the
// memoization cache and the currently-being-evaluated set used for cycle
// detection (spec §5, §7); a Target itself carries no mutable state.
type Evaluator struct {
	cache        map[depKey]cacheEntry
	inProgress   map[depKey]bool
	stack        []depKey
	logger       cobblelog.Logger
	targetLookup TargetLookup
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger injects a structured logger (spec SPEC_FULL §10).
func WithLogger(l cobblelog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// New creates an Evaluator resolving dependency Idents through lookup.
func New(lookup TargetLookup, opts ...Option) *Evaluator {
	e := &Evaluator{
		cache:        map[depKey]cacheEntry{},
		inProgress:   map[depKey]bool{},
		logger:       cobblelog.Default(),
		targetLookup: lookup,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate is the memoizing facade over evaluate: a process-lifetime cache
// keyed by (target, env_up) (spec §4.4 step 1, §8 referential-transparency
// property).
func (e *Evaluator) Evaluate(ctx context.Context, target *model.Target, envUp env.Env) (DepMap, Products, error) {
	key := makeDepKey(target, envUp)
	if cached, ok := e.cache[key]; ok {
		return cached.deps, cached.products, nil
	}

	if e.inProgress[key] {
		var cycle []string
		for i := len(e.stack) - 1; i >= 0; i-- {
			name, _, _ := strings.Cut(string(e.stack[i]), "|")
			cycle = append([]string{name}, cycle...)
			if e.stack[i] == key {
				break
			}
		}
		cycle = append(cycle, target.Identifier.String())
		return nil, nil, cobbleerr.New(cobbleerr.Cycle, "cycle detected while evaluating %s under env %s: %s", target, envUp.Digest(), strings.Join(cycle, " -> "))
	}
	e.inProgress[key] = true
	e.stack = append(e.stack, key)
	defer func() {
		delete(e.inProgress, key)
		e.stack = e.stack[:len(e.stack)-1]
	}()

	deps, products, err := e.evaluate(ctx, target, envUp)
	if err != nil {
		return nil, nil, err
	}

	e.cache[key] = cacheEntry{deps: deps, products: products}
	return deps, products, nil
}

func (e *Evaluator) evaluate(ctx context.Context, target *model.Target, envUp env.Env) (DepMap, Products, error) {
	ctx, span := tracer.Start(ctx, "cobble.evaluate",
		trace.WithAttributes(
			attribute.String("target", target.Identifier.String()),
			attribute.String("env_digest", envUp.Digest()),
		))
	defer span.End()

	envDown, err := target.Kind.DeriveDown(envUp)
	if err != nil {
		return nil, nil, fmt.Errorf("deriving down-environment for %s: %w", target, err)
	}

	envLocalA, err := target.Kind.DeriveLocal(envDown)
	if err != nil {
		return nil, nil, fmt.Errorf("deriving local environment for %s: %w", target, err)
	}

	depIdents, err := depsFromEnv(envLocalA)
	if err != nil {
		return nil, nil, err
	}

	childDepMaps := make([]DepMap, 0, len(depIdents))
	products := make(Products)
	for _, id := range depIdents {
		depTarget, err := e.targetLookup(id)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving dependency %s of %s: %w", id, target, err)
		}
		childDeps, childProducts, err := e.Evaluate(ctx, depTarget, envDown)
		if err != nil {
			return nil, nil, err
		}
		childDepMaps = append(childDepMaps, childDeps)
		products.merge(childProducts)
	}

	depMap := TopoMerge(childDepMaps)

	envLocalB := envLocalA
	for _, entry := range TopoSort(depMap) {
		envLocalB, err = envLocalB.Derive(entry.Using...)
		if err != nil {
			return nil, nil, fmt.Errorf("applying using-delta of %s to %s: %w", entry.Target, target, err)
		}
	}

	using, localProducts, err := target.Kind.UsingAndProducts(envLocalB)
	if err != nil {
		return nil, nil, fmt.Errorf("computing products for %s: %w", target, err)
	}

	selfKey := makeDepKey(target, envUp)
	if target.Kind.Transparent() {
		depMap[selfKey] = DepEntry{Target: target, Env: envUp, Rank: 0, Using: using}
	} else {
		depMap = DepMap{selfKey: {Target: target, Env: envUp, Rank: 0, Using: using}}
	}

	products[selfKey] = localProducts

	span.SetAttributes(attribute.Int("products", len(localProducts)))
	return depMap, products, nil
}
