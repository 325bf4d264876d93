package version

import "fmt"

// Build time injected information
var (
	Version    string
	CommitHash string
	BuildTime  string
)

// GetVersion returns the version information in a human consumable way. This is
// intended to be used when the user requests the version information or in the
// case of the User-Agent.
func GetVersion() string {
	if Version == "" {
		return "development"
	}
	if CommitHash == "" {
		return Version
	}
	return fmt.Sprintf("%s(%s)", Version, CommitHash)
}
