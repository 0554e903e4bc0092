// Package version carries the build identity reported by the CLI and API.
// Both values are meant to be set with -ldflags "-X".
package version

import "fmt"

var Version = "0.1.0"
var BuildDate = "2026-10-17"

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// String renders the version line printed by `attemptgen version`.
func String() string {
	return fmt.Sprintf("attemptgen %s (built %s)", Version, BuildDate)
}
