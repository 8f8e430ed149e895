// Package version reports the build version of voicelink.
//
//nolint:revive
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is overridden by ldflags at build time.
	Version = "dev"
	// CommitHash is overridden by ldflags at build time.
	CommitHash = ""
	// BuildTime is overridden by ldflags at build time.
	BuildTime = ""
)

// GetInfo returns "version (shorthash)", reading vcs info from the binary when ldflags were not set.
func GetInfo() string {
	if CommitHash == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision":
					CommitHash = setting.Value
				case "vcs.time":
					BuildTime = setting.Value
				}
			}
		}
	}
	return format(Version, CommitHash)
}

func format(version, commit string) string {
	if commit == "" {
		return version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (%s)", version, commit)
}
