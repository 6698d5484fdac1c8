package loader

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/cobbleforge/cobble/internal/ident"
	"github.com/cobbleforge/cobble/internal/model"
	"github.com/cobbleforge/cobble/internal/targetkind"
)

// buildFile is the parsed shape of a package's BUILD file: one array-of-
// tables per target kind, mirroring the distinct program()/c_library()/
// preprocess()/... declaration verbs original_source's BUILD files called
// as Python functions (spec §3's target-kind list).
type buildFile struct {
	Program    []programEntry    `toml:"program"`
	Library    []libraryEntry    `toml:"library"`
	Preprocess []preprocessEntry `toml:"preprocess"`
	Generic    []genericEntry    `toml:"generic"`
	Test       []testEntry       `toml:"test"`
}

type programEntry struct {
	Name     string   `toml:"name"`
	Deps     []string `toml:"deps"`
	Sources  []string `toml:"sources"`
	CFlags   []string `toml:"cflags"`
	LFlags   []string `toml:"lflags"`
	NamedEnv string   `toml:"named_env"`
}

type libraryEntry struct {
	Name        string   `toml:"name"`
	Deps        []string `toml:"deps"`
	Sources     []string `toml:"sources"`
	CFlags      []string `toml:"cflags"`
	UsingCFlags []string `toml:"using_cflags"`
	UsingLFlags []string `toml:"using_lflags"`
}

type preprocessEntry struct {
	Name      string   `toml:"name"`
	Deps      []string `toml:"deps"`
	Inputs    []string `toml:"inputs"`
	Outputs   []string `toml:"outputs"`
	Rule      string   `toml:"rule"`
	VarKeys   []string `toml:"var_keys"`
	OutputKey string   `toml:"output_key"`

	// MinToolVersion/MinToolVersionKey gate OptionalOutputs/OptionalOutputKey
	// behind a toolchain-version predicate (SPEC_FULL §11, §9 Open Question
	// on conditional deltas); all four are optional and ignored unless
	// MinToolVersion is set.
	MinToolVersionKey  string   `toml:"min_tool_version_key"`
	MinToolVersion     string   `toml:"min_tool_version"`
	OptionalOutputs    []string `toml:"optional_outputs"`
	OptionalOutputKey  string   `toml:"optional_output_key"`
}

type genericEntry struct {
	Name        string   `toml:"name"`
	Deps        []string `toml:"deps"`
	Rule        string   `toml:"rule"`
	Inputs      []string `toml:"inputs"`
	Outputs     []string `toml:"outputs"`
	VarKeys     []string `toml:"var_keys"`
	Transparent bool     `toml:"transparent"`
	Leaf        bool     `toml:"leaf"`
}

type testEntry struct {
	Name     string   `toml:"name"`
	Deps     []string `toml:"deps"`
	Sources  []string `toml:"sources"`
	CFlags   []string `toml:"cflags"`
	LFlags   []string `toml:"lflags"`
	NamedEnv string   `toml:"named_env"`
}

// LoadBuildFile parses the BUILD file for pkg and registers every target it
// declares. It returns the deps newly discovered across those targets, so
// the caller's package worklist can grow the way original_source's
// _wrap_verb does ("packages_to_visit += tgt.deps").
func LoadBuildFile(pkg *model.Package) ([]ident.Ident, error) {
	path := pkg.InPath("BUILD")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var bf buildFile
	if _, err := toml.DecodeFile(path, &bf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var allDeps []ident.Ident

	for _, e := range bf.Program {
		deps, err := resolveDeps(pkg, e.Deps)
		if err != nil {
			return nil, err
		}
		if _, err := targetkind.NewProgram(pkg, e.Name, deps, e.Sources, e.CFlags, e.LFlags, e.NamedEnv); err != nil {
			return nil, err
		}
		allDeps = append(allDeps, deps...)
	}

	for _, e := range bf.Library {
		deps, err := resolveDeps(pkg, e.Deps)
		if err != nil {
			return nil, err
		}
		if _, err := targetkind.NewLibrary(pkg, e.Name, deps, e.Sources, e.CFlags, e.UsingCFlags, e.UsingLFlags); err != nil {
			return nil, err
		}
		allDeps = append(allDeps, deps...)
	}

	for _, e := range bf.Preprocess {
		deps, err := resolveDeps(pkg, e.Deps)
		if err != nil {
			return nil, err
		}
		target, err := targetkind.NewPreprocess(pkg, e.Name, deps, e.Inputs, e.Outputs, e.Rule, e.VarKeys, e.OutputKey)
		if err != nil {
			return nil, err
		}
		if e.MinToolVersion != "" {
			target.Kind.(*targetkind.Preprocess).VersionGate = &targetkind.VersionGate{
				EnvKey:            e.MinToolVersionKey,
				Constraint:        e.MinToolVersion,
				OptionalOutputs:   e.OptionalOutputs,
				OptionalOutputKey: e.OptionalOutputKey,
			}
		}
		allDeps = append(allDeps, deps...)
	}

	for _, e := range bf.Generic {
		deps, err := resolveDeps(pkg, e.Deps)
		if err != nil {
			return nil, err
		}
		target, err := targetkind.NewGeneric(pkg, e.Name, deps, nil, nil, e.Transparent, e.Leaf)
		if err != nil {
			return nil, err
		}
		if e.Rule != "" {
			target.Kind.(*targetkind.Generic).WithProduct(e.Rule, e.Inputs, e.Outputs, e.VarKeys)
		}
		allDeps = append(allDeps, deps...)
	}

	for _, e := range bf.Test {
		deps, err := resolveDeps(pkg, e.Deps)
		if err != nil {
			return nil, err
		}
		if _, err := targetkind.NewTest(pkg, e.Name, deps, e.Sources, e.CFlags, e.LFlags, e.NamedEnv); err != nil {
			return nil, err
		}
		allDeps = append(allDeps, deps...)
	}

	return allDeps, nil
}

func resolveDeps(pkg *model.Package, refs []string) ([]ident.Ident, error) {
	out := make([]ident.Ident, 0, len(refs))
	for _, r := range refs {
		id, err := pkg.Resolve(r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
