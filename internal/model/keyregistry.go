package model

import (
	"github.com/cobbleforge/cobble/internal/cobbleerr"
)

// KeyType is the declared type of an environment key (SPEC_FULL §12.2).
type KeyType int

const (
	// KeyString marks a key whose values must freeze to env.KindString
	// (or a tuple of strings).
	KeyString KeyType = iota
	// KeyBool marks a key whose values are the strings "true"/"false",
	// used by conditional-delta predicates.
	KeyBool
)

// KeyRegistry restores the original loader's define_key mechanism
// (SPEC_FULL §12.2, grounded on src/cobble/loader.py's
// _build_conf_define_key/KeyRegistry): rule-pack plugins declare the env
// keys they own up front. The registry records declarations and rejects
// conflicting ones; the loader does not check BUILD or environment values
// against it.
type KeyRegistry struct {
	keys map[string]KeyType
}

// NewKeyRegistry creates an empty registry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{keys: map[string]KeyType{}}
}

// Define registers name with the given type. Re-defining an already
// registered key with the same type is a no-op; a conflicting redefinition
// is an error, mirroring how two rule-packs might legitimately agree on a
// shared key (e.g. "cflags") but must not disagree on its type.
func (r *KeyRegistry) Define(name string, t KeyType) error {
	if existing, ok := r.keys[name]; ok {
		if existing != t {
			return cobbleerr.New(cobbleerr.IncompatibleRule,
				"key %q already defined with a different type", name)
		}
		return nil
	}
	r.keys[name] = t
	return nil
}

// Lookup reports the declared type of name, if any.
func (r *KeyRegistry) Lookup(name string) (KeyType, bool) {
	t, ok := r.keys[name]
	return t, ok
}

// Known reports whether name has been declared via Define.
func (r *KeyRegistry) Known(name string) bool {
	_, ok := r.keys[name]
	return ok
}
