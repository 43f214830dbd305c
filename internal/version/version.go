// Package version holds build version information.
package version

// Version is the application version, overridable at build time with
// -ldflags "-X chart-tracer/internal/version.Version=...".
var Version = "0.1.0-dev"
