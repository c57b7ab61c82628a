// Package buildinfo holds version metadata stamped at link time.
package buildinfo

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X github.com/nugget/agentic/internal/buildinfo.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo returns build and runtime metadata keyed by field name.
func BuildInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}

// UserAgent is the User-Agent header sent on every outbound request.
func UserAgent() string {
	return "agentic/" + Version
}

// String returns a one-line summary for logging and --version.
func String() string {
	return fmt.Sprintf("agentic %s (%s) built %s", Version, GitCommit, BuildTime)
}
