package version

import "fmt"

// DaemonName identifies the binary in version output and user-facing banners.
const DaemonName = "wake-scheduler"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.3.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with the daemon name,
// commit and build time.
func Full() string {
	return fmt.Sprintf("%s %s (commit: %s, built at: %s)", DaemonName, Version, Commit, BuildTime)
}
