// Package version provides build-time version information for the application.
package version

var (
	// Version is the application version (e.g., git tag or "dev")
	Version = "dev"
	// Commit is the git commit hash
	Commit = "dev"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Info returns the build information for the named service
func Info(service string) BuildInfo {
	return BuildInfo{
		Service:   service,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}
}

// String renders the build information on one line, as printed by --version
func (b BuildInfo) String() string {
	return b.Version + " (commit " + b.Commit + ", built " + b.BuildTime + ")"
}
