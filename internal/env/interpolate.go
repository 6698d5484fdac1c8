package env

import (
	"fmt"
	"sort"
	"strings"
)

// Interpolate expands "%(name)s"-style references in value against the
// current dict d, recursing element-wise into tuples (spec §4.1, §9).
// Non-string, non-tuple values pass through unchanged. "%%"  escapes to a
// literal "%". A reference to a key missing from d fails with
// ErrMissingKey, naming the missing key and the keys that were available.
func Interpolate(d map[string]Value, value Value) (Value, error) {
	switch value.Kind() {
	case KindString:
		expanded, err := interpolateString(d, value.str)
		if err != nil {
			return Value{}, err
		}
		return String(expanded), nil
	case KindTuple:
		elems := make([]Value, len(value.tuple))
		for i, e := range value.tuple {
			iv, err := Interpolate(d, e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = iv
		}
		return Tuple(elems...), nil
	default:
		return value, nil
	}
}

// interpolateString implements the "%(name)s" mini-language: find "%(" ...
// ")s" spans, look the name up in d, substitute its string form; "%%"
// escapes to "%"; everything else is literal.
func interpolateString(d map[string]Value, s string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			out.WriteByte('%')
			i += 2
			continue
		}
		if i+1 < len(s) && s[i+1] == '(' {
			end := strings.Index(s[i+2:], ")s")
			if end == -1 {
				return "", fmt.Errorf("env: malformed interpolation in %q starting at offset %d", s, i)
			}
			name := s[i+2 : i+2+end]
			val, ok := d[name]
			if !ok {
				return "", &ErrMissingKey{Key: name, Available: sortedKeys(d)}
			}
			out.WriteString(valueToString(val))
			i = i + 2 + end + 2
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String(), nil
}

func valueToString(v Value) string {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return s
	case KindNumber:
		n, _ := v.AsNumber()
		return fmt.Sprintf("%g", n)
	case KindIdent:
		id, _ := v.AsIdent()
		return id.String()
	case KindTuple:
		elems, _ := v.AsTuple()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = valueToString(e)
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func sortedKeys(d map[string]Value) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrMissingKey is returned by Interpolate when a "%(name)s" reference
// cannot be resolved against the current dict (error kind
// InterpolationMissingKey, spec §7).
type ErrMissingKey struct {
	Key       string
	Available []string
}

func (e *ErrMissingKey) Error() string {
	return fmt.Sprintf("environment key %q not found; available keys are: %s", e.Key, strings.Join(e.Available, ", "))
}
