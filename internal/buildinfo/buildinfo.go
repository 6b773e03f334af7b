// Package buildinfo exposes the version stamped into release binaries.
package buildinfo

import "runtime/debug"

// Version is overridden at link time for release builds.
var Version = "dev"

func init() {
	if Version != "dev" {
		return
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		Version = bi.Main.Version
	}
}
