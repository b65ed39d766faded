package version

import "fmt"

var (
	// Version is the semantic version of the bundler.
	Version = "0.1.0-dev"
	// Commit is the short git SHA of the build, or "none".
	Commit = "none"
	// BuildTime is the UTC build timestamp, or "unknown".
	BuildTime = "unknown"
)

// Short returns the semantic version.
func Short() string {
	return Version
}

// Full returns the version with commit and build time, as printed by `minnow-bundle version`.
func Full() string {
	return fmt.Sprintf("minnow-bundle %s (commit %s, built %s)", Version, Commit, BuildTime)
}
