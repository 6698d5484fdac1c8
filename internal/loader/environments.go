package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cobbleforge/cobble/internal/env"
	"github.com/cobbleforge/cobble/internal/model"
)

// environmentsFile is the top-level shape of environments.yaml: an ordered
// list of named-environment definitions, each optionally deriving from an
// earlier one by name (SPEC_FULL §11: "the one file kind BUILD.conf
// historically built inline via environment() calls").
type environmentsFile struct {
	Environments []environmentEntry `yaml:"environments"`
}

// LoadEnvironments parses environments.yaml at path and registers every
// named environment it defines into proj, in file order so a later entry
// may name an earlier one as its base. vars seeds a root environment that
// every definition without an explicit base derives from, restoring
// BUILD.vars' role as localized configuration consulted while building
// environments (SPEC_FULL §12.5). A missing file registers nothing.
func LoadEnvironments(path string, vars Vars, proj *model.Project) error {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file environmentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	rootEnv, err := env.New(vars.Flatten())
	if err != nil {
		return fmt.Errorf("seeding root environment from BUILD.vars: %w", err)
	}

	return buildNamedEnv(proj, rootEnv, file.Environments)
}
