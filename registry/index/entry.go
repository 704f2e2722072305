// Package index implements IndexCodec (spec.md §4.2): the IndexEntry and
// Dependency wire types, the FeatureName grammar, and the newline-delimited
// JSON serialization of a package's IndexFile. It is grounded on the
// teacher's manifest/schema2 package, which follows the identical shape
// (hand-rolled JSON structs with explicit field ordering and an explicit
// MarshalJSON for round-trip stability) for a sibling content-addressed
// manifest format.
package index

import (
	"fmt"
	"regexp"

	"github.com/Palladinium/quartermaster/registry/index/semver"
	"github.com/Palladinium/quartermaster/registry/name"
)

// DependencyKind enumerates the three dependency kinds spec.md §3 names.
type DependencyKind string

const (
	KindNormal DependencyKind = "normal"
	KindBuild  DependencyKind = "build"
	KindDev    DependencyKind = "dev"
)

var featureNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateFeatureName validates a feature key: non-empty ASCII, alphanumeric/_/-.
func ValidateFeatureName(raw string) error {
	if raw == "" || !featureNamePattern.MatchString(raw) {
		return fmt.Errorf("invalid feature name %q", raw)
	}
	return nil
}

// Dependency is one entry of an IndexEntry's deps list (spec.md §3).
type Dependency struct {
	Name            string         `json:"name"`
	Req             string         `json:"req"`
	Features        []string       `json:"features"`
	Optional        bool           `json:"optional"`
	DefaultFeatures bool           `json:"default_features"`
	Target          *string        `json:"target"`
	Kind            DependencyKind `json:"kind"`
	Registry        *string        `json:"registry"`
	Package         *string        `json:"package"`
}

// ApplyExplicitName implements spec.md §4.1's explicit_name_in_toml
// rename rule: when the upload form specified an explicit TOML name,
// that value becomes the stored Name and the original dependency name
// is preserved in Package.
func (d *Dependency) ApplyExplicitName(explicit string) {
	if explicit == "" {
		return
	}
	original := d.Name
	d.Name = explicit
	d.Package = &original
}

// IndexEntry is one published version of one package (spec.md §3).
//
// Field order on the wire is fixed by the published schema and must be
// preserved by Serialize (though Go's encoding/json does not itself
// guarantee struct field order is significant to any consumer; it is
// preserved here because it matches what the reference client expects
// byte-for-byte in the test fixtures in spec.md §8).
type IndexEntry struct {
	Name        string              `json:"name"`
	Vers        semver.Version      `json:"vers"`
	Deps        []Dependency        `json:"deps"`
	Cksum       string              `json:"cksum"`
	Features    map[string][]string `json:"features"`
	Yanked      bool                `json:"yanked"`
	Links       *string             `json:"links"`
	RustVersion *MinLangVersion     `json:"rust_version,omitempty"`
}

// sameVersion reports whether two entries describe the same (package,
// version) pair; used for duplicate-version detection (spec.md §4.4.4
// step 10) and yank/unyank lookup (spec.md §4.4.5).
func (e IndexEntry) sameVersion(v semver.Version) bool {
	return e.Vers.Equal(v)
}

// ValidateName checks that Name is a well-formed canonical package name.
func (e IndexEntry) ValidateName() (name.Name, error) {
	return name.Validate(e.Name)
}
