// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/newsvec/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build as "v1.2.0 (abc1234, 2024-05-01)".
// Unset commit and date are omitted.
func String() string {
	switch {
	case Commit == "unknown" && Date == "unknown":
		return Version
	case Date == "unknown":
		return fmt.Sprintf("%s (%s)", Version, Commit)
	default:
		return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
	}
}
