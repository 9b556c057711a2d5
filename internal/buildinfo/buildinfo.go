// Package buildinfo holds the identifiers stamped into the binary with
// -ldflags "-X orchid/internal/buildinfo.Version=...".
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the most specific identifier known: a release version, else
// the commit, else "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Describe returns every identifier on one line.
func Describe() string {
	return fmt.Sprintf("orchid %s (commit %s, built %s)", Version, Commit, Date)
}
