package loader

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/cobbleforge/cobble/internal/cobbleerr"
	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/model"
	"github.com/cobbleforge/cobble/internal/toolversion"
)

// BuildConf is the parsed shape of a project's BUILD.conf (SPEC_FULL §12):
// the package worklist seeds, typed-key declarations for the KeyRegistry,
// subproject mounts, and toolchain version requirements. TOML replaces
// original_source's exec'd Python seed()/define_key()/subproject() calls
// with a declarative document.
type BuildConf struct {
	Seeds               []string          `toml:"seeds"`
	DefineKeys          []DefineKeyEntry  `toml:"define_key"`
	Subproject          []SubprojectEntry `toml:"subproject"`
	RequiresToolVersion map[string]string `toml:"requires_tool_version"`
}

// DefineKeyEntry declares one typed env key a rule pack owns (spec
// SPEC_FULL §12.2, grounded on src/cobble/loader.py's
// _build_conf_define_key).
type DefineKeyEntry struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// SubprojectEntry mounts a child project under an alias (SPEC_FULL §12.3,
// grounded on src/cobble/loader.py's _build_conf_subproject).
type SubprojectEntry struct {
	Alias string `toml:"alias"`
	Path  string `toml:"path"`
}

// LoadBuildConf parses the BUILD.conf file at path.
func LoadBuildConf(path string) (*BuildConf, error) {
	var conf BuildConf
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &conf, nil
}

// ApplyKeyDefinitions registers every declared key with proj's KeyRegistry.
func (c *BuildConf) ApplyKeyDefinitions(proj *model.Project) error {
	for _, dk := range c.DefineKeys {
		var kt model.KeyType
		switch dk.Type {
		case "string":
			kt = model.KeyString
		case "bool":
			kt = model.KeyBool
		default:
			return cobbleerr.New(cobbleerr.InvalidEnvValue, "BUILD.conf: unknown key type %q for key %q", dk.Type, dk.Name)
		}
		if err := proj.Keys.Define(dk.Name, kt); err != nil {
			return err
		}
	}
	return nil
}

// ValidateToolVersions checks every requires_tool_version entry (tool name
// -> semver constraint, e.g. "cc" -> ">=9.0.0") against the matching
// reported version in vars under "toolchain_versions.<tool>" (SPEC_FULL
// §11's Masterminds/semver/v3 wiring). Run at load time so a toolchain
// mismatch is reported before the evaluator ever runs, rather than failing
// deep inside a build.
func (c *BuildConf) ValidateToolVersions(vars Vars) error {
	for tool, constraint := range c.RequiresToolVersion {
		reported, ok := vars.Lookup("toolchain_versions", tool)
		if !ok {
			return cobbleerr.New(cobbleerr.InvalidEnvValue,
				"requires_tool_version: no reported version for tool %q (expected BUILD.vars [toolchain_versions] %s = \"...\")", tool, tool)
		}
		reportedStr, ok := reported.(string)
		if !ok {
			return cobbleerr.New(cobbleerr.InvalidEnvValue,
				"requires_tool_version: reported version for tool %q is not a string", tool)
		}

		ok, err := toolversion.Satisfies(reportedStr, constraint)
		if err != nil {
			return cobbleerr.New(cobbleerr.InvalidEnvValue, "requires_tool_version: tool %q: %v", tool, err)
		}
		if !ok {
			return cobbleerr.New(cobbleerr.InvalidEnvValue,
				"requires_tool_version: tool %q version %s does not satisfy constraint %q", tool, reportedStr, constraint)
		}
	}
	return nil
}

// environmentEntry is the shared shape of one named-environment definition,
// whether it came from environments.yaml or (in principle) an inline
// BUILD.conf table - kept here rather than environments.go so BuildConf and
// the YAML file can both build on it without an import cycle.
type environmentEntry struct {
	Name     string         `yaml:"name"`
	Base     string         `yaml:"base"`
	Contents map[string]any `yaml:"contents"`
}

func buildNamedEnv(proj *model.Project, rootEnv env.Env, entries []environmentEntry) error {
	for _, e := range entries {
		base := rootEnv
		if e.Base != "" {
			b, err := proj.NamedEnv(e.Base)
			if err != nil {
				return fmt.Errorf("environment %q: %w", e.Name, err)
			}
			base = b
		}
		deltas := delta.AppendAll(e.Contents)
		derived, err := base.Derive(deltas...)
		if err != nil {
			return fmt.Errorf("environment %q: %w", e.Name, err)
		}
		if err := proj.AddNamedEnv(e.Name, derived); err != nil {
			return err
		}
	}
	return nil
}
