// Package version carries build identification for the CLI and SDK.
package version

import (
	"fmt"
	"runtime"
)

// Semantic version of the client.
const (
	Major      = 0
	Minor      = 1
	Patch      = 0
	PreRelease = ""
)

// Injected at build time via -ldflags.
var (
	GitCommit = ""
	BuildDate = ""
)

// Version returns the semantic version string.
func Version() string {
	v := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if PreRelease != "" {
		v += "-" + PreRelease
	}
	return v
}

// Full returns the version with commit and platform detail, for --version
// output.
func Full() string {
	out := "curvelaunch v" + Version()
	if len(GitCommit) >= 7 {
		out += fmt.Sprintf(" (commit: %s)", GitCommit[:7])
	}
	if BuildDate != "" {
		out += fmt.Sprintf(" (built: %s)", BuildDate)
	}
	return out + fmt.Sprintf(" (go: %s, platform: %s/%s)", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
