// Package version carries build metadata injected via ldflags.
package version

import "fmt"

// Build-time variables set by ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the raw version components.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String renders the version line printed by `rxscan --version`.
func String() string {
	return fmt.Sprintf("rxscan %s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
