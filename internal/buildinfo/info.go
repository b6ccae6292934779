// Package buildinfo holds release metadata stamped in by the linker:
//
//	go build -ldflags "-X github.com/orcafacil/orcafacil/internal/buildinfo.Version=v1.2.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String is the text printed by orcafacil --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
