package localversion

import (
	"math"

	contextutils "jupyterchat/internal/utils"
)

// PatchSentinel is the patch number a version gets the first time it is tagged.
const PatchSentinel = 90

// BumpOptions tunes the bump rule
type BumpOptions struct {
	// KeepPatch leaves the patch component alone when the first build tag is added
	KeepPatch bool
}

// Bump returns the next local version.
//
// Without a build tag the result gets "+twd1" and its patch set to PatchSentinel
// (unless opts.KeepPatch). With a "+twdN" tag only N is incremented; a counter
// that cannot be incremented is an INVALID_INPUT error.
func (v Version) Bump(opts BumpOptions) (Version, error) {
	next := v
	if !v.HasBuildTag() {
		next.Build = 1
		if !opts.KeepPatch {
			next.Patch = PatchSentinel
		}
		return next, nil
	}
	if v.Build == math.MaxInt {
		return Version{}, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "build tag of %s cannot be incremented", v.Python())
	}
	next.Build++
	return next, nil
}

// BumpPython parses a PEP 440 spelled identifier and returns the bumped version
func BumpPython(s string, opts BumpOptions) (Version, error) {
	v, err := ParsePython(s)
	if err != nil {
		return Version{}, err
	}
	return v.Bump(opts)
}
