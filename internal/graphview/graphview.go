// Package graphview implements the emitter-facing surface of spec §4.7: it
// takes the flat sequence of ProductRecords an Evaluator produced across
// every leaf target and turns them into the deduplicated, stably-ordered
// view a downstream ninja writer consumes. Grounded on the dedup/order
// contract spelled out in spec §4.7 (original_source/cobble/output.py is not
// present in the retrieval pack in full) and the teacher's
// internal/executor/plan.go struct-field conventions for the phony/
// SourceFiles helpers layered on top.
package graphview

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cobbleforge/cobble/internal/cobbleerr"
	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
)

// envDigestSegment matches a path segment of the form "env/<40-hex-digit
// digest>" inserted by Project.OutPath (spec §4.3), so it can be
// de-emphasized when computing a stable sort key (spec §4.7: "a transform
// that de-emphasizes the env-digest path segment").
var envDigestSegment = regexp.MustCompile(`env/[0-9a-f]{40}/`)

// Key is the normalized dedup key for a ProductRecord: its sorted output
// paths joined by a space (spec §4.7).
func Key(outputs []string) string {
	sorted := append([]string(nil), outputs...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// sortKey replaces the env-digest path segment of every output with a fixed
// placeholder, so two records for the same logical artifact under different
// environments sort adjacently instead of being scattered by hash order.
func sortKey(outputs []string) string {
	sorted := append([]string(nil), outputs...)
	sort.Strings(sorted)
	for i, o := range sorted {
		sorted[i] = envDigestSegment.ReplaceAllString(o, "env/*/")
	}
	return strings.Join(sorted, " ")
}

// Dedup merges a flat sequence of ProductRecords by output-path key (spec
// §4.7 invariant 4 / §4.4): a repeated key whose records are bytewise-equal
// is collapsed to one; a repeated key with differing records fails with
// IncompatibleDuplicateProducts.
func Dedup(records []model.ProductRecord) ([]model.ProductRecord, error) {
	seen := make(map[string]model.ProductRecord, len(records))
	order := make([]string, 0, len(records))

	for _, r := range records {
		key := Key(r.Outputs)
		existing, ok := seen[key]
		if !ok {
			seen[key] = r
			order = append(order, key)
			continue
		}
		if !existing.Equal(r) {
			return nil, cobbleerr.New(cobbleerr.IncompatibleDuplicateProducts,
				"output path(s) %q emitted with incompatible records", key)
		}
	}

	out := make([]model.ProductRecord, len(order))
	for i, key := range order {
		out[i] = seen[key]
	}
	return out, nil
}

// StableSort orders records by their de-emphasized output-path sort key,
// then by raw output-path key as a tiebreaker so the order stays fully
// deterministic across env-digest changes (spec §4.7).
func StableSort(records []model.ProductRecord) []model.ProductRecord {
	out := append([]model.ProductRecord(nil), records...)
	sort.Slice(out, func(i, j int) bool {
		a, b := sortKey(out[i].Outputs), sortKey(out[j].Outputs)
		if a != b {
			return a < b
		}
		return Key(out[i].Outputs) < Key(out[j].Outputs)
	})
	return out
}

// DedupAndSort runs Dedup followed by StableSort, the two-step pipeline spec
// §6 item 2 describes ("a deduplicated iteration of ProductRecords, in the
// stable order of §4.7").
func DedupAndSort(records []model.ProductRecord) ([]model.ProductRecord, error) {
	deduped, err := Dedup(records)
	if err != nil {
		return nil, err
	}
	return StableSort(deduped), nil
}

// PhonyRecord builds the grouping record spec §6 item 3 describes for a leaf
// target: {outputs: [identifier], rule: "phony", implicit: every output path
// emitted under (target, seedEnv)}.
func PhonyRecord(target ident.Ident, leafProducts []model.ProductRecord) model.ProductRecord {
	var implicit []string
	for _, p := range leafProducts {
		implicit = append(implicit, p.Outputs...)
	}
	return model.ProductRecord{
		Outputs:  []string{target.String()},
		Rule:     "phony",
		Implicit: implicit,
	}
}

// SourceFiles returns the regeneration-dependency list of spec §6 output
// item 4 - BUILD.conf plus every package's BUILD file. The emitted ninja
// file declares no regenerator edge on them. Grounded on original_source's
// Project.iterfiles.
func SourceFiles(proj *model.Project) []string {
	return proj.IterFiles()
}
