// Package delta implements the environment-mutation algebra of spec §4.2:
// Append, Prepend, Override, Remove, Subset and Conditional, grounded on
// original_source/src/cobble/env.py's append/prepend/override/remove/
// subset/make_delta_conditional functions.
package delta

import (
	"fmt"

	"github.com/cobbleforge/cobble/internal/env"
)

// Delta is a single environment mutation, applied left-to-right as part of
// a delta sequence (spec §3, §4.2). It is exactly env.Mutator; the alias
// exists so callers of this package never need to import internal/env just
// to name the type.
type Delta = env.Mutator

// Append creates a Delta that sets key to value (frozen, interpolated) if
// absent, otherwise concatenates the existing value with value.
func Append(key string, value any) Delta {
	return func(d map[string]env.Value) error {
		raw, err := env.Freeze(value)
		if err != nil {
			return fmt.Errorf("delta: append %s: %w", key, err)
		}
		interpolated, err := env.Interpolate(d, raw)
		if err != nil {
			return fmt.Errorf("delta: append %s: %w", key, err)
		}
		current, ok := d[key]
		if !ok {
			d[key] = interpolated
			return nil
		}
		merged, err := env.Concat(current, interpolated)
		if err != nil {
			return fmt.Errorf("delta: append %s: %w", key, err)
		}
		d[key] = merged
		return nil
	}
}

// Prepend is Append with the concatenation order reversed: value + existing.
func Prepend(key string, value any) Delta {
	return func(d map[string]env.Value) error {
		raw, err := env.Freeze(value)
		if err != nil {
			return fmt.Errorf("delta: prepend %s: %w", key, err)
		}
		interpolated, err := env.Interpolate(d, raw)
		if err != nil {
			return fmt.Errorf("delta: prepend %s: %w", key, err)
		}
		current, ok := d[key]
		if !ok {
			d[key] = interpolated
			return nil
		}
		merged, err := env.Concat(interpolated, current)
		if err != nil {
			return fmt.Errorf("delta: prepend %s: %w", key, err)
		}
		d[key] = merged
		return nil
	}
}

// Override creates a Delta that unconditionally replaces key's value.
func Override(key string, value any) Delta {
	return func(d map[string]env.Value) error {
		raw, err := env.Freeze(value)
		if err != nil {
			return fmt.Errorf("delta: override %s: %w", key, err)
		}
		interpolated, err := env.Interpolate(d, raw)
		if err != nil {
			return fmt.Errorf("delta: override %s: %w", key, err)
		}
		d[key] = interpolated
		return nil
	}
}

// Remove creates a Delta that deletes key if present.
func Remove(key string) Delta {
	return func(d map[string]env.Value) error {
		delete(d, key)
		return nil
	}
}

// Subset creates a Delta that deletes every key not present in keys.
func Subset(keys ...string) Delta {
	keep := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keep[k] = struct{}{}
	}
	return func(d map[string]env.Value) error {
		for k := range d {
			if _, ok := keep[k]; !ok {
				delete(d, k)
			}
		}
		return nil
	}
}

// Predicate inspects the in-progress dict and decides whether a
// conditional delta sequence should apply (spec §4.2, §9).
type Predicate func(d map[string]env.Value) bool

// Conditional wraps a delta sequence so that each inner Delta applies only
// when predicate holds on the dict at the moment that inner Delta runs.
// This mirrors make_delta_conditional's per-change (not per-sequence)
// gating: a predicate that depends on a key an earlier Delta in the same
// sequence just set will see that key.
func Conditional(predicate Predicate, seq ...Delta) []Delta {
	out := make([]Delta, len(seq))
	for i, d := range seq {
		d := d
		out[i] = func(dict map[string]env.Value) error {
			if !predicate(dict) {
				return nil
			}
			return d(dict)
		}
	}
	return out
}

// AppendAll builds one Append Delta per entry of kv, in unspecified order —
// safe because each targets a distinct key (spec §4.2 bulk constructors).
func AppendAll(kv map[string]any) []Delta {
	out := make([]Delta, 0, len(kv))
	for k, v := range kv {
		out = append(out, Append(k, v))
	}
	return out
}

// PrependAll is AppendAll's Prepend counterpart.
func PrependAll(kv map[string]any) []Delta {
	out := make([]Delta, 0, len(kv))
	for k, v := range kv {
		out = append(out, Prepend(k, v))
	}
	return out
}
