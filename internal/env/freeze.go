package env

import (
	"fmt"
	"reflect"

	"github.com/cobbleforge/cobble/internal/ident"
)

// Freeze converts an arbitrary Go value into a frozen env.Value, following
// spec §4.1: strings and numbers pass through, slices/arrays become tuples of
// frozen elements (recursively), Idents pass through, everything else is
// rejected with ErrInvalidType.
func Freeze(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v, nil
	case nil:
		return Value{}, &ErrInvalidType{Type: "nil"}
	case string:
		return String(v), nil
	case ident.Ident:
		return FromIdent(v), nil
	case int:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case float32:
		return Number(float64(v)), nil
	case float64:
		return Number(v), nil
	case []string:
		elems := make([]Value, len(v))
		for i, s := range v {
			elems[i] = String(s)
		}
		return Tuple(elems...), nil
	case []ident.Ident:
		elems := make([]Value, len(v))
		for i, id := range v {
			elems[i] = FromIdent(id)
		}
		return Tuple(elems...), nil
	case []any:
		elems := make([]Value, len(v))
		for i, e := range v {
			fv, err := Freeze(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = fv
		}
		return Tuple(elems...), nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			fv, err := Freeze(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			elems[i] = fv
		}
		return Tuple(elems...), nil
	}

	return Value{}, &ErrInvalidType{Type: fmt.Sprintf("%T", raw)}
}

// ErrInvalidType is returned by Freeze for any type other than string,
// number, ident.Ident or an iterable of those (error kind InvalidEnvValue,
// spec §7).
type ErrInvalidType struct {
	Type string
}

func (e *ErrInvalidType) Error() string {
	return fmt.Sprintf("invalid type in environment: %s", e.Type)
}
