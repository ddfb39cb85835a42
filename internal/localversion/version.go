package localversion

import (
	"fmt"
	"regexp"
	"strconv"

	contextutils "jupyterchat/internal/utils"
)

// PreRelease identifies the pre-release channel of a version
type PreRelease int

const (
	// Final is a version without a pre-release segment
	Final PreRelease = iota
	Alpha
	Beta
	RC
)

// BuildTagPrefix is the vendor marker placed in front of the rebuild counter
const BuildTagPrefix = "twd"

var (
	pythonLabels = map[PreRelease]string{Alpha: "a", Beta: "b", RC: "rc"}
	npmLabels    = map[PreRelease]string{Alpha: "alpha", Beta: "beta", RC: "rc"}
)

const numeric = `(0|[1-9][0-9]*)`

var (
	pythonPattern = regexp.MustCompile(`^` + numeric + `\.` + numeric + `\.` + numeric +
		`(?:(a|b|rc)` + numeric + `)?` +
		`(?:\+` + BuildTagPrefix + `([1-9][0-9]*))?$`)

	// The second build-tag spelling is the "-twd.N" form older release scripts wrote into package.json.
	npmPattern = regexp.MustCompile(`^` + numeric + `\.` + numeric + `\.` + numeric +
		`(?:-(alpha|beta|rc)\.` + numeric + `)?` +
		`(?:(?:\+` + BuildTagPrefix + `|-` + BuildTagPrefix + `\.)([1-9][0-9]*))?$`)
)

// Version is a parsed local release identifier
type Version struct {
	Major int
	Minor int
	Patch int

	PreRelease    PreRelease
	PreReleaseNum int

	// Build is the N of the "+twdN" suffix; zero means no suffix.
	Build int
}

// HasBuildTag reports whether the version carries a "+twdN" suffix
func (v Version) HasBuildTag() bool {
	return v.Build > 0
}

// Python renders the version in PEP 440 spelling
func (v Version) Python() string {
	s := v.base()
	if v.PreRelease != Final {
		s += fmt.Sprintf("%s%d", pythonLabels[v.PreRelease], v.PreReleaseNum)
	}
	return s + v.buildTag()
}

// NPM renders the version in semver spelling
func (v Version) NPM() string {
	s := v.base()
	if v.PreRelease != Final {
		s += fmt.Sprintf("-%s.%d", npmLabels[v.PreRelease], v.PreReleaseNum)
	}
	return s + v.buildTag()
}

// String returns the Python spelling, which is what version files hold
func (v Version) String() string {
	return v.Python()
}

func (v Version) base() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) buildTag() string {
	if !v.HasBuildTag() {
		return ""
	}
	return fmt.Sprintf("+%s%d", BuildTagPrefix, v.Build)
}

// ParsePython parses a PEP 440 spelled identifier such as "0.19.0a1+twd5"
func ParsePython(s string) (Version, error) {
	m := pythonPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid python version %q", s)
	}
	return fromMatch(s, m, map[string]PreRelease{"a": Alpha, "b": Beta, "rc": RC})
}

// ParseNPM parses a semver spelled identifier such as "0.19.0-alpha.1+twd5"
func ParseNPM(s string) (Version, error) {
	m := npmPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid npm version %q", s)
	}
	return fromMatch(s, m, map[string]PreRelease{"alpha": Alpha, "beta": Beta, "rc": RC})
}

// fromMatch builds a Version from the submatches shared by both patterns:
// major, minor, patch, label, label number, build.
func fromMatch(s string, m []string, labels map[string]PreRelease) (Version, error) {
	var (
		v    Version
		nums [5]int
	)
	for i, idx := range []int{1, 2, 3, 5, 6} {
		if m[idx] == "" {
			continue
		}
		n, err := strconv.Atoi(m[idx])
		if err != nil {
			return Version{}, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "version %q component %q out of range", s, m[idx])
		}
		nums[i] = n
	}

	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]
	if m[4] != "" {
		v.PreRelease = labels[m[4]]
		v.PreReleaseNum = nums[3]
	}
	v.Build = nums[4]
	return v, nil
}
