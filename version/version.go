// Package version carries the build identity reported by `registry
// --version` and in the log line printed at startup (SPEC_FULL.md §3's
// supplemental version-reporting feature), ported from the teacher's
// version package: package path and version string are package-level
// vars so the linker can overwrite them with -ldflags at build time.
package version

// mainpkg is the canonical import path the binary is built from.
var mainpkg = "github.com/Palladinium/quartermaster"

// version is the module version, always suffixed "+unknown" unless
// overwritten by -ldflags at build time.
var version = "v0.1.0+unknown"

// revision is the VCS revision the binary was built from, set by
// -ldflags at build time.
var revision = ""

// Package returns the canonical import path the running binary was built from.
func Package() string { return mainpkg }

// Version returns the module version the running binary was built from.
func Version() string { return version }

// Revision returns the VCS revision the running binary was built from.
func Revision() string { return revision }
