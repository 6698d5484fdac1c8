package evalcache

import (
	"fmt"

	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/ident"
)

// valueDTO is the JSON-serializable mirror of env.Value. env.Value's fields
// are unexported (spec §4.1 keeps it an opaque frozen union), so a cache
// entry round-trips through this shape rather than marshaling env.Value
// directly.
type valueDTO struct {
	Kind  string     `json:"kind"`
	Str   string     `json:"str,omitempty"`
	Num   float64    `json:"num,omitempty"`
	Ident string     `json:"ident,omitempty"`
	Tuple []valueDTO `json:"tuple,omitempty"`
}

func encodeValue(v env.Value) valueDTO {
	switch v.Kind() {
	case env.KindString:
		s, _ := v.AsString()
		return valueDTO{Kind: "string", Str: s}
	case env.KindNumber:
		n, _ := v.AsNumber()
		return valueDTO{Kind: "number", Num: n}
	case env.KindIdent:
		id, _ := v.AsIdent()
		return valueDTO{Kind: "ident", Ident: id.String()}
	case env.KindTuple:
		elems, _ := v.AsTuple()
		tuple := make([]valueDTO, len(elems))
		for i, e := range elems {
			tuple[i] = encodeValue(e)
		}
		return valueDTO{Kind: "tuple", Tuple: tuple}
	default:
		return valueDTO{Kind: "string"}
	}
}

func decodeValue(d valueDTO) (env.Value, error) {
	switch d.Kind {
	case "string":
		return env.String(d.Str), nil
	case "number":
		return env.Number(d.Num), nil
	case "ident":
		id, err := ident.Parse(d.Ident)
		if err != nil {
			return env.Value{}, fmt.Errorf("evalcache: decoding cached ident %q: %w", d.Ident, err)
		}
		return env.FromIdent(id), nil
	case "tuple":
		elems := make([]env.Value, len(d.Tuple))
		for i, t := range d.Tuple {
			v, err := decodeValue(t)
			if err != nil {
				return env.Value{}, err
			}
			elems[i] = v
		}
		return env.Tuple(elems...), nil
	default:
		return env.Value{}, fmt.Errorf("evalcache: unknown cached value kind %q", d.Kind)
	}
}
