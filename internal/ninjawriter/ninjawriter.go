// Package ninjawriter renders a deduplicated, stably-sorted sequence of
// model.ProductRecords into a ninja build file. It is intentionally thin -
// computing the graph is this system's job (spec §1); turning that graph
// into ninja syntax is the downstream executor's, and this package exists
// only so `cmd/cobble build` has something runnable to hand off to. Path
// escaping is lifted directly from original_source/cobble/ninja_syntax.py
// (its line wrapping is not); the builtin rule command strings
// from cobble/target/c.py's ninja_rules dict.
package ninjawriter

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/model"
)

// Rule is a ninja rule declaration, grounded on ninja_syntax.Writer.rule's
// keyword arguments.
type Rule struct {
	Name        string
	Command     string
	Description string
	Depfile     string
	Deps        string
}

// BuiltinRules are the five ninja rules of the C-family target kinds: the
// four original_source's c.py registers, lifted verbatim from its
// ninja_rules dict, plus run_c_test.
var BuiltinRules = []Rule{
	{
		Name:        "compile_c_object",
		Command:     "$cc -MD -MF $depfile $cflags -c -o $out $in",
		Description: "C $out",
		Depfile:     "$out.d",
		Deps:        "gcc",
	},
	{
		Name:        "link_c_program",
		Command:     "$cc $lflags -o $out $linksrcs",
		Description: "LINK $out",
	},
	{
		Name:        "archive_c_library",
		Command:     "$ar rc $out $in && $ranlib $out",
		Description: "AR $out",
	},
	{
		Name:        "symlink_leaf",
		Command:     "ln -sf $symlink_target $out",
		Description: "SYMLINK $out",
	},
	// run_c_test has no original_source analogue (c_test.py never defined a
	// ninja rule); it backs the Test target kind's stamp-file product
	// (SPEC_FULL §12.4).
	{
		Name:        "run_c_test",
		Command:     "$in && touch $out",
		Description: "TEST $in",
	},
}

// Writer renders ninja syntax to an underlying io.Writer, matching
// ninja_syntax.Writer's escaping rules ($-escape literal spaces and
// colons in paths) without its line-wrapping (a fixed width column limit
// has no equivalent value here; ninja tolerates arbitrarily long lines).
type Writer struct {
	w *bufio.Writer
}

// New wraps w in a Writer.
func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Flush flushes buffered output to the underlying writer.
func (nw *Writer) Flush() error {
	return nw.w.Flush()
}

// escapePath mirrors ninja_syntax._escape_path: literal "$ " first (so a
// pre-escaped space isn't double-escaped), then bare spaces, then colons.
func escapePath(word string) string {
	word = strings.ReplaceAll(word, "$ ", "$$ ")
	word = strings.ReplaceAll(word, " ", "$ ")
	word = strings.ReplaceAll(word, ":", "$:")
	return word
}

// Comment writes a ninja comment line.
func (nw *Writer) Comment(text string) {
	fmt.Fprintf(nw.w, "# %s\n", text)
}

// Rule declares a ninja rule.
func (nw *Writer) Rule(r Rule) {
	fmt.Fprintf(nw.w, "rule %s\n", r.Name)
	fmt.Fprintf(nw.w, "  command = %s\n", r.Command)
	if r.Description != "" {
		fmt.Fprintf(nw.w, "  description = %s\n", r.Description)
	}
	if r.Depfile != "" {
		fmt.Fprintf(nw.w, "  depfile = %s\n", r.Depfile)
	}
	if r.Deps != "" {
		fmt.Fprintf(nw.w, "  deps = %s\n", r.Deps)
	}
}

// Build writes a single build edge for rec, in ninja_syntax.Writer.build's
// "outputs: rule inputs | implicit || order_only" form, followed by an
// indented variable assignment per rec.Variables key (sorted for
// determinism - spec §4.7's stable-emission-order requirement extends to
// a record's own variable lines, not just inter-record ordering).
func (nw *Writer) Build(rec model.ProductRecord) {
	outputs := mapEscape(rec.Outputs)
	inputs := mapEscape(rec.Inputs)

	line := fmt.Sprintf("build %s: %s", strings.Join(outputs, " "), rec.Rule)
	if len(inputs) > 0 {
		line += " " + strings.Join(inputs, " ")
	}
	if len(rec.Implicit) > 0 {
		line += " | " + strings.Join(mapEscape(rec.Implicit), " ")
	}
	if len(rec.OrderOnly) > 0 {
		line += " || " + strings.Join(mapEscape(rec.OrderOnly), " ")
	}
	fmt.Fprintln(nw.w, line)

	for _, key := range sortedVariableKeys(rec.Variables) {
		fmt.Fprintf(nw.w, "  %s = %s\n", key, renderValue(rec.Variables[key]))
	}
}

func mapEscape(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = escapePath(p)
	}
	return out
}

func sortedVariableKeys(vars map[string]env.Value) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderValue flattens an env.Value into the space-joined string ninja
// variables expect, filtering empty strings the way
// ninja_syntax.Writer.variable's "' '.join(filter(None, value))" does for
// list-valued variables.
func renderValue(v env.Value) string {
	switch v.Kind() {
	case env.KindString:
		s, _ := v.AsString()
		return s
	case env.KindNumber:
		n, _ := v.AsNumber()
		return fmt.Sprintf("%v", n)
	case env.KindIdent:
		id, _ := v.AsIdent()
		return id.String()
	case env.KindTuple:
		elems, _ := v.AsTuple()
		parts := make([]string, 0, len(elems))
		for _, e := range elems {
			s := renderValue(e)
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// WriteAll renders BuiltinRules followed by every record in records (assumed
// already deduplicated and stably sorted by internal/graphview), one build
// edge each.
func WriteAll(w io.Writer, records []model.ProductRecord) error {
	nw := New(w)
	for _, r := range BuiltinRules {
		nw.Rule(r)
		nw.w.WriteByte('\n')
	}
	for _, rec := range records {
		nw.Build(rec)
	}
	return nw.Flush()
}
