// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

// Version is set at link time via `-ldflags -X github.com/latchkey-dev/latchkey/buildvars.Version=...`.
// It will be empty for local or development builds.
var Version string

// Commit is the short VCS revision, set at link time like Version.
var Commit string

// Date is the build timestamp (RFC3339), set at link time like Version.
var Date string

// VersionOrDefault returns `Version` if set, otherwise returns the provided default.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}
