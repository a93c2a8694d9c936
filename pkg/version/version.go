package version

import (
	"fmt"
	"runtime"
)

const (
	// BinaryName is the name of the compiled binary, also used as a service
	// label in log output.
	BinaryName = "pems"
)

// Version and BuildDate are overridden at build time via ldflags.
var (
	// Version is the git tag or short SHA the binary was built from.
	Version = "UNKNOWN"

	// BuildDate is the UTC timestamp at which the binary was built.
	BuildDate = "UNKNOWN"
)

// VersionString returns a human readable string describing the running
// binary, suitable for use as cobra's Version field.
func VersionString() string {
	return fmt.Sprintf("%s (%s/%s). Build date: %s", Version, runtime.GOOS, runtime.GOARCH, BuildDate)
}
