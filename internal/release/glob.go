package release

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	contextutils "jupyterchat/internal/utils"

	"github.com/spf13/afero"
)

// MatchFiles returns the regular files under root whose slash separated path
// relative to root matches pattern. A "**" segment matches zero or more
// directories; other segments use path.Match syntax. Results are sorted.
func MatchFiles(fsys afero.Fs, root, pattern string) ([]string, error) {
	patternSegs := strings.Split(path.Clean(filepath.ToSlash(pattern)), "/")
	for _, seg := range patternSegs {
		if _, err := path.Match(seg, ""); err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "bad glob pattern %q: %w", pattern, err)
		}
	}

	// Walk only below the literal prefix of the pattern.
	literal := 0
	for literal < len(patternSegs)-1 && !hasMeta(patternSegs[literal]) {
		literal++
	}
	start := filepath.Join(root, filepath.FromSlash(path.Join(patternSegs[:literal]...)))

	ok, err := afero.DirExists(fsys, start)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to stat %s: %w", start, err)
	}
	if !ok {
		return nil, nil
	}

	var matches []string
	err = afero.Walk(fsys, start, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if matchSegments(patternSegs, strings.Split(filepath.ToSlash(rel), "/")) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to walk %s: %w", start, err)
	}

	sort.Strings(matches)
	return matches, nil
}

func hasMeta(seg string) bool {
	return strings.ContainsAny(seg, `*?[\`)
}

func matchSegments(pattern, name []string) bool {
	if len(pattern) == 0 {
		return len(name) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(name); i++ {
			if matchSegments(pattern[1:], name[i:]) {
				return true
			}
		}
		return false
	}
	if len(name) == 0 {
		return false
	}
	if ok, _ := path.Match(pattern[0], name[0]); !ok {
		return false
	}
	return matchSegments(pattern[1:], name[1:])
}
