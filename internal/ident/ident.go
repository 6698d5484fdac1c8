// Package ident implements the "//pkg/relpath:name" target identifier
// grammar (spec §3, §4.3), grounded on original_source/cobble/__init__.py's
// Ident class.
package ident

import (
	"fmt"
	"path"
	"strings"
)

// Ident is a value-equal, hashable reference to a Target: (PackageRelpath,
// TargetName, Alias). Alias is the empty string for an identifier local to
// the project being loaded; a non-empty Alias names a subproject (spec
// SPEC_FULL §12.3).
type Ident struct {
	Alias          string
	PackageRelpath string
	// TargetName is empty when the identifier elided a name, meaning "the
	// target named after the package's basename" (spec §4.3).
	TargetName string
}

// Parse parses a textual identifier of the form "[alias]//relpath[:name]".
// Zero colons after "//" means the name defaults to the package basename
// (TargetName is left empty, resolved later via TargetNameOrDefault); one
// colon names the target explicitly; more than one colon is an error
// (error kind BadIdentifier, spec §7).
func Parse(s string) (Ident, error) {
	alias := ""
	rest := s
	if idx := strings.Index(s, "//"); idx >= 0 {
		alias = s[:idx]
		rest = s[idx+2:]
	} else {
		return Ident{}, fmt.Errorf("bad identifier: %q (missing \"//\")", s)
	}

	parts := strings.Split(rest, ":")
	switch len(parts) {
	case 1:
		return Ident{Alias: alias, PackageRelpath: parts[0]}, nil
	case 2:
		return Ident{Alias: alias, PackageRelpath: parts[0], TargetName: parts[1]}, nil
	default:
		return Ident{}, fmt.Errorf("bad identifier: %q (too many colons)", s)
	}
}

// TargetNameOrDefault returns TargetName, or the basename of
// PackageRelpath if TargetName was elided (spec §4.3, §8 boundary).
func (i Ident) TargetNameOrDefault() string {
	if i.TargetName != "" {
		return i.TargetName
	}
	return path.Base(i.PackageRelpath)
}

// String renders i back into the textual form Parse accepts (spec §8
// round-trip: Parse(i.String()) == i).
func (i Ident) String() string {
	var b strings.Builder
	b.WriteString(i.Alias)
	b.WriteString("//")
	b.WriteString(i.PackageRelpath)
	if i.TargetName != "" {
		b.WriteByte(':')
		b.WriteString(i.TargetName)
	}
	return b.String()
}

// ResolveRelative resolves a package-relative reference (e.g. ":quux") or a
// fully-qualified "//..." / "alias//..." reference against the package at
// relpath. A relative reference with no alias is resolved to the package's
// own subproject (spec §4.3).
func ResolveRelative(ownerAlias, ownerRelpath, reference string) (Ident, error) {
	if strings.HasPrefix(reference, ":") {
		return Ident{Alias: ownerAlias, PackageRelpath: ownerRelpath, TargetName: reference[1:]}, nil
	}
	return Parse(reference)
}
