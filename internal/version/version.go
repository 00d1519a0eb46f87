// Package version exposes the embedded release version.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Get returns the current version, with whitespace trimmed
func Get() string {
	return strings.TrimSpace(versionContent)
}

// UserAgent is the User-Agent sent to provider endpoints.
func UserAgent() string {
	return "toolroute/" + Get()
}
