// Package version holds the release version stamped on indexed documents and
// reported by the CLI.
package version

// Version is the semantic version, overridable at build time with
// -ldflags "-X .../internal/version.Version=...".
var Version = "0.1.0"
