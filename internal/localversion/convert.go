package localversion

import (
	contextutils "jupyterchat/internal/utils"

	"golang.org/x/mod/semver"
)

// PythonToNPM converts a PEP 440 spelled identifier to its semver spelling
func PythonToNPM(s string) (string, error) {
	v, err := ParsePython(s)
	if err != nil {
		return "", err
	}
	out := v.NPM()
	if !IsValidSemver(out) {
		return "", contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "%q converts to invalid semver %q", s, out)
	}
	return out, nil
}

// NPMToPython converts a semver spelled identifier to its PEP 440 spelling
func NPMToPython(s string) (string, error) {
	v, err := ParseNPM(s)
	if err != nil {
		return "", err
	}
	return v.Python(), nil
}

// IsValidSemver reports whether s is a valid semantic version without the "v" prefix
func IsValidSemver(s string) bool {
	return semver.IsValid("v" + s)
}

// Compare orders two versions by their semver spelling.
// Build tags do not take part in semver precedence, so versions differing only in the tag compare equal.
func Compare(a, b Version) int {
	return semver.Compare("v"+a.NPM(), "v"+b.NPM())
}
