// Package toolversion wires github.com/Masterminds/semver/v3 into the
// loader/evaluation boundary (SPEC_FULL §11): validating a project's
// requires_tool_version declarations against the toolchain versions
// recorded in BUILD.vars, and gating conditional deltas on the same
// version predicates. A standalone leaf package so both internal/loader
// (which validates at load time) and internal/targetkind (whose Preprocess
// kind gates optional stages on a reported toolchain version) can depend on
// it without a cycle between them.
package toolversion

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/cobbleforge/cobble/internal/delta"
	"github.com/cobbleforge/cobble/internal/env"
)

// Satisfies reports whether reportedVersion satisfies constraintStr (a
// semver.Constraint expression such as ">=9.0.0").
func Satisfies(reportedVersion, constraintStr string) (bool, error) {
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return false, fmt.Errorf("toolversion: invalid constraint %q: %w", constraintStr, err)
	}
	version, err := semver.NewVersion(reportedVersion)
	if err != nil {
		return false, fmt.Errorf("toolversion: invalid version %q: %w", reportedVersion, err)
	}
	return constraint.Check(version), nil
}

// AtLeastPredicate builds a delta.Predicate gating a conditional delta
// sequence on whether the environment's envKey (a toolchain version string,
// typically seeded from BUILD.vars via internal/loader.Vars.Flatten) satisfies
// constraintStr. Missing or unparseable values make the predicate false
// rather than erroring, since a Predicate has no error return (spec §4.2) -
// an absent or malformed version just means the gated stage stays off.
func AtLeastPredicate(envKey, constraintStr string) (delta.Predicate, error) {
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return nil, fmt.Errorf("toolversion: invalid constraint %q: %w", constraintStr, err)
	}
	return func(d map[string]env.Value) bool {
		v, ok := d[envKey]
		if !ok {
			return false
		}
		s, ok := v.AsString()
		if !ok {
			return false
		}
		version, err := semver.NewVersion(s)
		if err != nil {
			return false
		}
		return constraint.Check(version)
	}, nil
}
