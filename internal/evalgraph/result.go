// Package evalgraph implements the contextual DAG evaluator of spec §4.4:
// a memoizing recursive walk that evaluates each target once per incoming
// environment, merges dependency results via a longest-path topological
// merge (§4.5), and assembles per-target build products (§4.6). Grounded on
// original_source/cobble/__init__.py's Target._evaluate/topo_merge/
// topo_sort/product.
package evalgraph

import (
	"fmt"
	"sort"

	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/model"
)

// depKey is the composite (target, env_up) key dep maps and product maps
// are indexed by. env.Env is not comparable (it wraps a map), so the key
// is the target's identifier string plus the env's digest; Env and Target
// are carried alongside so callers don't need a second lookup.
type depKey string

func makeDepKey(t *model.Target, e env.Env) depKey {
	return depKey(t.Identifier.String() + "|" + e.Digest())
}

// DepEntry is one entry of a DepMap: the (rank, using_delta) pair the spec
// associates with a (target, env_up) pair (spec §3, §4.4).
type DepEntry struct {
	Target *model.Target
	Env    env.Env
	Rank   int
	Using  []delta.Delta
}

// DepMap maps (descendant_target, env_up_for_descendant) to (rank,
// using_delta) for every target evaluation in a contextual subDAG (spec
// §3).
type DepMap map[depKey]DepEntry

// Products maps (target, env_up) to the ProductRecords that target emitted
// under that environment (spec §3).
type Products map[depKey][]model.ProductRecord

// merge copies src's products into dst (key collisions are tolerated;
// spec §4.4 step 5 notes they are equal by construction given §4.7).
func (p Products) merge(src Products) {
	for k, v := range src {
		p[k] = v
	}
}

// TopoMerge combines several children's DepMaps into one, per spec §4.5:
// every incoming rank is incremented by one (an edge was followed to reach
// it from the current target), and when a (target, env) key recurs across
// children, the merged rank is the max of the candidates — the longest
// path, which is what topological order requires (spec §9 Open Question:
// "increment each incoming rank by 1 first, then combine with max of
// existing").
func TopoMerge(maps []DepMap) DepMap {
	merged := make(DepMap)
	for _, m := range maps {
		for k, entry := range m {
			entry.Rank++
			if existing, ok := merged[k]; ok && existing.Rank > entry.Rank {
				entry.Rank = existing.Rank
			}
			merged[k] = entry
		}
	}
	return merged
}

// TopoSort orders a DepMap's entries by (rank, target identifier, env
// digest), the last resort tiebreaker naming the using-delta's composite
// key. Identifier+digest are already globally unique (spec §3 invariants 1
// and 5), so ties never actually reach the using-delta comparison in
// practice (spec §4.5).
func TopoSort(m DepMap) []DepEntry {
	entries := make([]DepEntry, 0, len(m))
	for _, e := range m {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.Target.Identifier.String() != b.Target.Identifier.String() {
			return a.Target.Identifier.String() < b.Target.Identifier.String()
		}
		if a.Env.Digest() != b.Env.Digest() {
			return a.Env.Digest() < b.Env.Digest()
		}
		return fmt.Sprintf("%p", a.Using) < fmt.Sprintf("%p", b.Using)
	})
	return entries
}
