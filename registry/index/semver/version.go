// Package semver implements spec.md's Version type: a semantic-versioning
// triple plus optional pre-release tag, with build metadata accepted on
// parse but discarded everywhere else. Parsing itself is delegated to
// github.com/Masterminds/semver/v3 (used for version handling elsewhere
// in the retrieval pack, e.g. sunxth-ocpack and quay-claircore), with a
// thin wrapper enforcing the spec's narrower equality and rendering
// rules on top.
package semver

import (
	"fmt"

	mastersemver "github.com/Masterminds/semver/v3"
)

// Version is {major, minor, patch} plus an optional pre-release tag.
// Build metadata is intentionally not a field: it is accepted on input
// (see Parse) and discarded immediately.
type Version struct {
	Major, Minor, Patch uint64
	Pre                 string
}

// Parse parses raw as a semantic version. It returns the parsed Version
// with build metadata stripped, and reports via hadBuildMetadata whether
// raw carried a non-empty build metadata segment, so callers can surface
// the user-visible warning spec.md §4.4.4 step 7 requires.
func Parse(raw string) (v Version, hadBuildMetadata bool, buildMetadata string, err error) {
	parsed, err := mastersemver.NewVersion(raw)
	if err != nil {
		return Version{}, false, "", fmt.Errorf("invalid version %q: %w", raw, err)
	}

	v = Version{
		Major: parsed.Major(),
		Minor: parsed.Minor(),
		Patch: parsed.Patch(),
		Pre:   parsed.Prerelease(),
	}

	meta := parsed.Metadata()
	return v, meta != "", meta, nil
}

// Equal implements the spec's equality rule: major/minor/patch/pre must
// all match; build metadata never participates.
func (v Version) Equal(other Version) bool {
	return v.Major == other.Major &&
		v.Minor == other.Minor &&
		v.Patch == other.Patch &&
		v.Pre == other.Pre
}

// String renders the version without build metadata: "M.m.p[-pre]".
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	return s
}

// MarshalJSON renders the version as its canonical string form.
func (v Version) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON parses the version from its canonical string form. Build
// metadata present in the JSON value is silently discarded, matching
// Parse; callers that need the warning must use Parse directly on raw
// upload input instead of relying on JSON unmarshaling.
func (v *Version) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, _, _, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
