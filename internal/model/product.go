package model

import "github.com/cobbleforge/cobble/internal/env"

// ProductRecord is a single build edge destined for the downstream
// executor's input format (spec §3, §6). Field names are part of the
// external contract with the emitter.
type ProductRecord struct {
	Outputs    []string
	Rule       string
	Inputs     []string
	Implicit   []string
	OrderOnly  []string
	Variables  map[string]env.Value
}

// Equal reports whether two ProductRecords are bytewise-equal field by
// field, the test spec §4.7/invariant 4 uses to decide whether a duplicate
// output path is a harmless re-derivation or an IncompatibleDuplicateProducts
// error.
func (p ProductRecord) Equal(other ProductRecord) bool {
	if p.Rule != other.Rule {
		return false
	}
	if !stringsEqual(p.Outputs, other.Outputs) ||
		!stringsEqual(p.Inputs, other.Inputs) ||
		!stringsEqual(p.Implicit, other.Implicit) ||
		!stringsEqual(p.OrderOnly, other.OrderOnly) {
		return false
	}
	if len(p.Variables) != len(other.Variables) {
		return false
	}
	for k, v := range p.Variables {
		ov, ok := other.Variables[k]
		if !ok || !env.Equal(v, ov) {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Product builds a ProductRecord per spec §4.6: variables is env stripped
// of the two reserved meta-keys; implicit/order_only combine the
// caller-supplied lists with whatever the reserved keys carried, omitting
// empty results.
func Product(e env.Env, outputs []string, rule string, inputs []string, implicit []string, orderOnly []string) (ProductRecord, error) {
	stripped, err := e.Derive(removeReserved()...)
	if err != nil {
		return ProductRecord{}, err
	}

	p := ProductRecord{
		Outputs:   outputs,
		Rule:      rule,
		Inputs:    inputs,
		Variables: stripped.DictCopy(),
	}
	p.Implicit = combineReserved(implicit, e, ReservedImplicit)
	p.OrderOnly = combineReserved(orderOnly, e, ReservedOrderOnly)
	return p, nil
}

// Reserved env keys carrying edge-scoped implicit/order-only dependencies
// (spec §4.6, §6). Using-deltas inject entries here without a separate
// channel; Product strips them from the emitted variables map.
const (
	ReservedImplicit  = "__implicit__"
	ReservedOrderOnly = "__order_only__"
)

func removeReserved() []env.Mutator {
	return []env.Mutator{
		func(d map[string]env.Value) error { delete(d, ReservedImplicit); return nil },
		func(d map[string]env.Value) error { delete(d, ReservedOrderOnly); return nil },
	}
}

func combineReserved(explicit []string, e env.Env, key string) []string {
	var fromEnv []string
	if v, ok := e.Lookup(key); ok {
		if tuple, ok := v.AsTuple(); ok {
			for _, elem := range tuple {
				if s, ok := elem.AsString(); ok {
					fromEnv = append(fromEnv, s)
				} else if id, ok := elem.AsIdent(); ok {
					fromEnv = append(fromEnv, id.String())
				}
			}
		}
	}
	combined := append(append([]string{}, explicit...), fromEnv...)
	if len(combined) == 0 {
		return nil
	}
	return combined
}
