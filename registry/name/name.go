// Package name implements NameCodec (spec.md §4.1): validation of package
// names, the bijection between a name and its index path, and archive
// path construction. It is grounded on the teacher's reference/regexp.go
// (name validation via regexp) and registry/storage/paths.go (the
// sharding scheme for on-disk path mapping), adapted from Docker image
// names to cargo-style package names.
package name

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Palladinium/quartermaster/registry/index/semver"
)

const maxLength = 64

// validPattern matches a canonical (already-lowercased) package name:
// alphabetic first character, then alphanumeric/_/- for the remainder.
var validPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// forbidden lists reserved filesystem names and language-reserved
// identifiers that may never be used as a package name, mirroring the
// kind of reserved-word list the teacher's reference package excludes
// implicitly through its stricter domain-name grammar.
var forbidden = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {},
	"self": {}, "super": {}, "crate": {}, "std": {}, "core": {}, "alloc": {},
}

// Name is an immutable, validated, canonical (lowercased) package name.
type Name struct {
	s string
}

// Error reports why a raw name failed validation.
type Error struct {
	Raw    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid package name %q: %s", e.Raw, e.Reason)
}

// Validate lowercases raw and checks it against the rules in spec.md
// §3: non-empty, ASCII, first character alphabetic, remaining characters
// alphanumeric/_/-, length <= 64, not reserved.
func Validate(raw string) (Name, error) {
	if raw == "" {
		return Name{}, &Error{Raw: raw, Reason: "empty"}
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] > 0x7f {
			return Name{}, &Error{Raw: raw, Reason: "non-ASCII character"}
		}
	}

	lowered := strings.ToLower(raw)
	if len(lowered) > maxLength {
		return Name{}, &Error{Raw: raw, Reason: fmt.Sprintf("length %d exceeds maximum of %d", len(lowered), maxLength)}
	}
	if !validPattern.MatchString(lowered) {
		if lowered[0] < 'a' || lowered[0] > 'z' {
			return Name{}, &Error{Raw: raw, Reason: "first character must be alphabetic"}
		}
		return Name{}, &Error{Raw: raw, Reason: "contains a forbidden character"}
	}
	if _, ok := forbidden[lowered]; ok {
		return Name{}, &Error{Raw: raw, Reason: "reserved name"}
	}

	return Name{s: lowered}, nil
}

// String returns the canonical (lowercased) form.
func (n Name) String() string { return n.s }

// Equal reports byte-equality of the canonical forms.
func (n Name) Equal(other Name) bool { return n.s == other.s }

// Less implements the lexicographic ordering on the canonical form.
func (n Name) Less(other Name) bool { return n.s < other.s }

// IndexPath computes the sharded path to this package's index file,
// per spec.md §4.1:
//
//	len==1: "1/" + name
//	len==2: "2/" + name
//	len==3: "3/" + name[0:1] + "/" + name
//	len>=4: name[0:2] + "/" + name[2:4] + "/" + name
func (n Name) IndexPath() string {
	s := n.s
	switch len(s) {
	case 1:
		return "1/" + s
	case 2:
		return "2/" + s
	case 3:
		return "3/" + s[0:1] + "/" + s
	default:
		return s[0:2] + "/" + s[2:4] + "/" + s
	}
}

// ArchivePath computes the relative archive path for (name, version):
// "<name>/<version>/<name>.crate", with the version rendered without
// build metadata (spec.md §4.1).
func (n Name) ArchivePath(v semver.Version) string {
	return n.s + "/" + v.String() + "/" + n.s + ".crate"
}

// FromIndexPath parses a path back into a Name, inverting IndexPath.
// Accepts both rooted ("/3/f/foo") and relative ("3/f/foo") forms.
// This is the round-trip half of invariant I4.
func FromIndexPath(path string) (Name, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return Name{}, &Error{Raw: path, Reason: "empty path"}
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] > 0x7f {
			return Name{}, &Error{Raw: path, Reason: "non-ASCII path"}
		}
	}

	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return Name{}, &Error{Raw: path, Reason: "path contains empty, current, or parent components"}
		}
	}

	switch len(parts) {
	case 2:
		shard, candidate := parts[0], parts[1]
		if shard != "1" && shard != "2" {
			return Name{}, &Error{Raw: path, Reason: "two-component path must start with 1 or 2"}
		}
		if len(candidate) != mustAtoi(shard) {
			return Name{}, &Error{Raw: path, Reason: "name length does not match shard"}
		}
		return Validate(candidate)

	case 3:
		a, b, candidate := parts[0], parts[1], parts[2]
		if a == "3" {
			if len(candidate) != 3 || b != candidate[0:1] {
				return Name{}, &Error{Raw: path, Reason: "malformed length-3 shard"}
			}
			return Validate(candidate)
		}
		if len(candidate) < 4 || a != candidate[0:2] || b != candidate[2:4] {
			return Name{}, &Error{Raw: path, Reason: "shard prefix does not match name"}
		}
		return Validate(candidate)

	default:
		return Name{}, &Error{Raw: path, Reason: "too many path components"}
	}
}

func mustAtoi(s string) int {
	switch s {
	case "1":
		return 1
	case "2":
		return 2
	default:
		return -1
	}
}
