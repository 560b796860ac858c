// Package build carries version information stamped at link time.
package build

// Version is reported by `sheaf version` and `sheaf --version`.
// Release builds set it with -ldflags "-X go.trai.ch/sheaf/internal/build.Version=...".
var Version = "dev"
