package env

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Mutator is a single environment mutation: a function from a plain dict to
// unit, applied in place. Delta values (internal/delta) are built from
// Mutators; Env never imports internal/delta to avoid a cycle, since delta
// itself depends on env.Value/env.Interpolate/env.Freeze.
type Mutator func(map[string]Value) error

// Env is an immutable, content-digested key-value mapping (spec §3, §4.1).
// The zero value is not valid; construct with New.
type Env struct {
	dict   map[string]Value
	digest string
}

// New creates an Env by defensively freezing every value in contents.
func New(contents map[string]any) (Env, error) {
	frozen := make(map[string]Value, len(contents))
	for k, v := range contents {
		fv, err := Freeze(v)
		if err != nil {
			return Env{}, fmt.Errorf("env: key %q: %w", k, err)
		}
		frozen[k] = fv
	}
	return fromFrozen(frozen), nil
}

// Empty returns the Env with no keys.
func Empty() Env {
	return fromFrozen(map[string]Value{})
}

func fromFrozen(dict map[string]Value) Env {
	e := Env{dict: dict}
	e.digest = fingerprint(dict)
	return e
}

// Digest returns the content digest: a deterministic function of (key,
// value) pairs, independent of key order and construction history (spec §3
// invariant 2, §4.1).
func (e Env) Digest() string { return e.digest }

// Get looks up key, returning def if absent.
func (e Env) Get(key string, def Value) Value {
	if v, ok := e.dict[key]; ok {
		return v
	}
	return def
}

// Lookup is the two-value form of Get.
func (e Env) Lookup(key string) (Value, bool) {
	v, ok := e.dict[key]
	return v, ok
}

// Has reports whether key is present.
func (e Env) Has(key string) bool {
	_, ok := e.dict[key]
	return ok
}

// Keys returns a sorted copy of e's keys.
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e.dict))
	for k := range e.dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Derive applies a sequence of Mutators left-to-right to a shallow copy of
// e's dict and returns a new Env wrapping the result (spec §4.1).
func (e Env) Derive(mutators ...Mutator) (Env, error) {
	next := make(map[string]Value, len(e.dict))
	for k, v := range e.dict {
		next[k] = v
	}
	for _, m := range mutators {
		if m == nil {
			continue
		}
		if err := m(next); err != nil {
			return Env{}, err
		}
	}
	return fromFrozen(next), nil
}

// Subset returns a new Env containing only the intersection of e's keys
// with keys (spec §4.1).
func (e Env) Subset(keys ...string) Env {
	next := make(map[string]Value, len(keys))
	for _, k := range keys {
		if v, ok := e.dict[k]; ok {
			next[k] = v
		}
	}
	return fromFrozen(next)
}

// SubsetSet is Subset taking a set rather than a variadic list, used by
// target kinds that hold their relevant-key sets as a map (spec §4.6).
func (e Env) SubsetSet(keys map[string]struct{}) Env {
	next := make(map[string]Value, len(keys))
	for k := range keys {
		if v, ok := e.dict[k]; ok {
			next[k] = v
		}
	}
	return fromFrozen(next)
}

// DictCopy returns a plain snapshot map of e's contents, used to build the
// "variables" field of a ProductRecord (spec §4.6).
func (e Env) DictCopy() map[string]Value {
	out := make(map[string]Value, len(e.dict))
	for k, v := range e.dict {
		out[k] = v
	}
	return out
}

// Equal reports whether two Envs have the same digest and the same
// content. Digest equality alone is sufficient given invariant 2, but we
// also compare contents defensively the way the original's __eq__ does.
func (e Env) Equal(other Env) bool {
	if e.digest != other.digest {
		return false
	}
	if len(e.dict) != len(other.dict) {
		return false
	}
	for k, v := range e.dict {
		ov, ok := other.dict[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

func (e Env) String() string {
	return fmt.Sprintf("Env(%s)", e.digest)
}

// fingerprint computes a SHA-1 digest over a canonical encoding of the
// sorted (key, value) pairs, so that two Envs built from equal content
// always agree regardless of construction history (spec §4.1 invariant 2).
func fingerprint(dict map[string]Value) string {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		canonicalize(&b, dict[k])
		b.WriteByte('\x00')
	}

	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalize writes a byte encoding of v that is stable across Go map
// iteration order and across repeated construction of equal tuples.
func canonicalize(b *strings.Builder, v Value) {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		fmt.Fprintf(b, "s:%d:%s", len(s), s)
	case KindNumber:
		n, _ := v.AsNumber()
		fmt.Fprintf(b, "n:%v", n)
	case KindIdent:
		id, _ := v.AsIdent()
		fmt.Fprintf(b, "i:%s", id.String())
	case KindTuple:
		elems, _ := v.AsTuple()
		fmt.Fprintf(b, "t:%d:", len(elems))
		for _, e := range elems {
			canonicalize(b, e)
			b.WriteByte(',')
		}
	}
}
