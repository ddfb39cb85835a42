package release

import (
	"fmt"
	"strings"

	contextutils "jupyterchat/internal/utils"

	"github.com/spf13/afero"
)

// VersionFile is a Python module whose first line assigns the package version
type VersionFile struct {
	Path     string
	Variable string
	// Value is the assigned version with surrounding quotes removed
	Value string
}

// ReadVersionFile reads path and checks that its first line is `<variable> = <value>`
func ReadVersionFile(fsys afero.Fs, path, variable string) (VersionFile, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return VersionFile{}, contextutils.WrapErrorf(contextutils.ErrFileNotFound, "failed to read version file %s: %w", path, err)
	}

	firstLine, _, _ := strings.Cut(string(data), "\n")
	firstLine = strings.TrimRight(firstLine, "\r")

	lhs, rhs, found := strings.Cut(firstLine, " = ")
	if !found || strings.TrimSpace(lhs) != variable {
		return VersionFile{}, contextutils.WrapErrorf(contextutils.ErrInvalidFormat,
			"version file %s has unexpected content; expected %s assignment in the first line, found %q",
			path, variable, firstLine)
	}

	return VersionFile{
		Path:     path,
		Variable: variable,
		Value:    unquote(strings.TrimSpace(rhs)),
	}, nil
}

// Render returns the new file content assigning version
func (f VersionFile) Render(version string) []byte {
	return []byte(fmt.Sprintf("%s = %q\n", f.Variable, version))
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
