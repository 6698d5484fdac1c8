package loader

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadBuildVars reads the project's BUILD.vars file (SPEC_FULL §12.5): a
// TOML document of nested configuration (e.g. per-machine toolchain paths)
// consulted while building named environments. A missing file is not an
// error - it yields an empty Vars - mirroring original_source's
// Vars.load swallowing FileNotFoundError.
func LoadBuildVars(path string) (Vars, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Vars{}, nil
	}
	var v Vars
	if _, err := toml.DecodeFile(path, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Vars is the nested dict BUILD.vars decodes into. Flatten turns its nested
// path foo.bar into the env key "foo.bar", which environments.yaml
// interpolates as "%(foo.bar)s".
type Vars map[string]any

// Lookup traverses keys into v, returning the leaf value and whether the
// full path was present.
func (v Vars) Lookup(keys ...string) (any, bool) {
	var cur any = map[string]any(v)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Flatten renders v into a dotted-key flat map, so it can seed an Env whose
// %(...)s interpolation environment.yaml definitions draw from (SPEC_FULL
// §12.5).
func (v Vars) Flatten() map[string]any {
	out := map[string]any{}
	flattenInto(out, "", map[string]any(v))
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		if b, ok := val.(bool); ok {
			// env values are string/number/ident/tuple only (spec §4.1);
			// booleans stringify to match the overrideable_bool_key
			// "true"/"false" convention the KeyBool type describes.
			out[key] = fmt.Sprintf("%t", b)
			continue
		}
		out[key] = val
	}
}
