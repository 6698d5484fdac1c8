package main

import (
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/model"
)

// recordView and valueView mirror model.ProductRecord/env.Value into
// JSON-marshalable shapes for `cobble graph --format=json` and `cobble
// query`, the same accessor-only mirroring internal/evalcache uses to
// serialize a Value without reaching into its unexported fields.
type recordView struct {
	Outputs   []string             `json:"outputs"`
	Rule      string               `json:"rule"`
	Inputs    []string             `json:"inputs,omitempty"`
	Implicit  []string             `json:"implicit,omitempty"`
	OrderOnly []string             `json:"order_only,omitempty"`
	Variables map[string]valueView `json:"variables,omitempty"`
}

type valueView struct {
	Kind  string      `json:"kind"`
	Value interface{} `json:"value"`
}

func viewValue(v env.Value) valueView {
	switch v.Kind() {
	case env.KindString:
		s, _ := v.AsString()
		return valueView{Kind: "string", Value: s}
	case env.KindNumber:
		n, _ := v.AsNumber()
		return valueView{Kind: "number", Value: n}
	case env.KindIdent:
		id, _ := v.AsIdent()
		return valueView{Kind: "ident", Value: id.String()}
	case env.KindTuple:
		elems, _ := v.AsTuple()
		out := make([]valueView, len(elems))
		for i, e := range elems {
			out[i] = viewValue(e)
		}
		return valueView{Kind: "tuple", Value: out}
	default:
		return valueView{Kind: "unknown"}
	}
}

func viewRecord(r model.ProductRecord) recordView {
	vars := make(map[string]valueView, len(r.Variables))
	for k, v := range r.Variables {
		vars[k] = viewValue(v)
	}
	return recordView{
		Outputs:   r.Outputs,
		Rule:      r.Rule,
		Inputs:    r.Inputs,
		Implicit:  r.Implicit,
		OrderOnly: r.OrderOnly,
		Variables: vars,
	}
}

func viewRecords(records []model.ProductRecord) []recordView {
	out := make([]recordView, len(records))
	for i, r := range records {
		out[i] = viewRecord(r)
	}
	return out
}
