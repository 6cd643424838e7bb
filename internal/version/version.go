// Package version holds the build version stamped in at link time.
package version

// Version is set via -ldflags "-X .../internal/version.Version=...".
var Version = "undefined"
