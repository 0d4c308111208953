// Package version holds build metadata stamped in with -ldflags and written
// into every log header.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the writer version stored in log headers, e.g. "dev+unknown".
func String() string {
	return fmt.Sprintf("%s+%s", Version, GitSHA)
}
