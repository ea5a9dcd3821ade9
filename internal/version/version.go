package version

import (
	"fmt"
	"runtime/debug"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/muurk/espmonitor/internal/version.Version=v0.10.0 \
//	                   -X github.com/muurk/espmonitor/internal/version.Commit=abc123"
//
// If not set, they are populated from the module and VCS build info, and
// otherwise fall back to "dev" and "unknown".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			populate(info)
		}
	}

	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// populate fills in whatever ldflags left empty. "go install ...@v1.2.3"
// records the module version; local builds only carry VCS settings.
func populate(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	if Commit != "" {
		return
	}

	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}
	if revision == "" {
		return
	}

	// Use short hash (first 7 characters)
	if len(revision) > 7 {
		revision = revision[:7]
	}
	Commit = revision
	if modified == "true" {
		Commit += "-dirty"
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
