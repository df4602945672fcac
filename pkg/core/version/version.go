// ============================================================================
// manebot - chat bot framework
// ============================================================================
//
// Package:     version
// Description: Build and plugin API version information
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"

	"golang.org/x/mod/semver"
)

// Core is the framework version plugins declare compatibility against
const Core = "0.1.0"

// Build metadata, set with -ldflags "-X github.com/manebot/manebot/pkg/core/version.Commit=..."
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Canonical returns v in the "vMAJOR.MINOR.PATCH" form semver expects, or
// an empty string when v is not a valid semantic version
func Canonical(v string) string {
	if v == "" {
		return ""
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// Satisfies reports whether the core version is at least min. An empty min
// is always satisfied.
func Satisfies(min string) bool {
	if min == "" {
		return true
	}
	m := Canonical(min)
	if m == "" {
		return false
	}
	return semver.Compare(Canonical(Core), m) >= 0
}

// String returns a one-line description of the running build
func String() string {
	return fmt.Sprintf("manebot %s (commit %s, built %s, %s/%s)",
		Core, Commit, BuildDate, runtime.GOOS, runtime.GOARCH)
}
