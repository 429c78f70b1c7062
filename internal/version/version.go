// Package version holds build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/sitepub/internal/version.Version=v1.2.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns the one-line version shown by `sitepub --version`.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return "sitepub " + Version
	}
	return fmt.Sprintf("sitepub %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
