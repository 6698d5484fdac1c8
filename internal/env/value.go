// Package env implements the immutable, content-digested environment maps
// that thread configuration through a target evaluation (spec §3, §4.1).
package env

import (
	"fmt"

	"github.com/cobbleforge/cobble/internal/ident"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	// KindString holds a plain string.
	KindString Kind = iota
	// KindNumber holds a float64.
	KindNumber
	// KindIdent holds a resolved target identifier.
	KindIdent
	// KindTuple holds an ordered sequence of frozen Values.
	KindTuple
)

// Value is the frozen, typed union an Env may hold. Only String, Number,
// Ident and Tuple are legal; anything else is rejected by Freeze with
// ErrInvalidType (spec §4.1, error kind InvalidEnvValue).
type Value struct {
	kind   Kind
	str    string
	num    float64
	id     ident.Ident
	tuple  []Value
}

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number constructs a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// FromIdent constructs an Ident Value.
func FromIdent(i ident.Ident) Value { return Value{kind: KindIdent, id: i} }

// Tuple constructs a tuple Value from already-frozen elements.
func Tuple(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindTuple, tuple: cp}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsIdent returns the ident payload and whether v is an ident.
func (v Value) AsIdent() (ident.Ident, bool) {
	return v.id, v.kind == KindIdent
}

// AsTuple returns the tuple payload and whether v is a tuple.
func (v Value) AsTuple() ([]Value, bool) {
	return v.tuple, v.kind == KindTuple
}

// Len reports the tuple length, or -1 if v is not a tuple.
func (v Value) Len() int {
	if v.kind != KindTuple {
		return -1
	}
	return len(v.tuple)
}

// Concat concatenates two Values of the same shape: string+string or
// tuple+tuple. It is the "+" semantics append/prepend rely on (spec §4.2).
func Concat(a, b Value) (Value, error) {
	if a.kind != b.kind {
		return Value{}, fmt.Errorf("env: cannot concatenate %v with %v", a.kind, b.kind)
	}
	switch a.kind {
	case KindString:
		return String(a.str + b.str), nil
	case KindTuple:
		out := make([]Value, 0, len(a.tuple)+len(b.tuple))
		out = append(out, a.tuple...)
		out = append(out, b.tuple...)
		return Tuple(out...), nil
	default:
		return Value{}, fmt.Errorf("env: value of kind %v is not concatenable", a.kind)
	}
}

// Equal reports deep equality between two Values, used when comparing
// ProductRecords for the §4.7 dedup contract.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindString:
		return a.str == b.str
	case KindNumber:
		return a.num == b.num
	case KindIdent:
		return a.id == b.id
	case KindTuple:
		if len(a.tuple) != len(b.tuple) {
			return false
		}
		for i := range a.tuple {
			if !Equal(a.tuple[i], b.tuple[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindIdent:
		return "ident"
	case KindTuple:
		return "tuple"
	default:
		return "unknown"
	}
}
