package evalcache

import (
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/model"
)

// productDTO is the JSON-serializable mirror of model.ProductRecord.
type productDTO struct {
	Outputs   []string            `json:"outputs,omitempty"`
	Rule      string              `json:"rule"`
	Inputs    []string            `json:"inputs,omitempty"`
	Implicit  []string            `json:"implicit,omitempty"`
	OrderOnly []string            `json:"order_only,omitempty"`
	Variables map[string]valueDTO `json:"variables,omitempty"`
}

func encodeProduct(p model.ProductRecord) productDTO {
	var vars map[string]valueDTO
	if len(p.Variables) > 0 {
		vars = make(map[string]valueDTO, len(p.Variables))
		for k, v := range p.Variables {
			vars[k] = encodeValue(v)
		}
	}
	return productDTO{
		Outputs:   p.Outputs,
		Rule:      p.Rule,
		Inputs:    p.Inputs,
		Implicit:  p.Implicit,
		OrderOnly: p.OrderOnly,
		Variables: vars,
	}
}

func decodeProduct(d productDTO) (model.ProductRecord, error) {
	var vars map[string]env.Value
	if len(d.Variables) > 0 {
		vars = make(map[string]env.Value, len(d.Variables))
		for k, v := range d.Variables {
			decoded, err := decodeValue(v)
			if err != nil {
				return model.ProductRecord{}, err
			}
			vars[k] = decoded
		}
	}
	return model.ProductRecord{
		Outputs:   d.Outputs,
		Rule:      d.Rule,
		Inputs:    d.Inputs,
		Implicit:  d.Implicit,
		OrderOnly: d.OrderOnly,
		Variables: vars,
	}, nil
}
