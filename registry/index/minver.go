package index

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinLangVersion implements spec.md's MinLangVersion: {major, minor?,
// patch?, pre}, rendered as "M[.m[.p[-pre]]]". The grammar intentionally
// requires a bare version and rejects the explicit '^' character (spec.md
// §9 Open Question 2): it accepts "1.70" or "1.70.0" but not "^1.70".
type MinLangVersion struct {
	Major uint64
	Minor *uint64
	Patch *uint64
	Pre   string
}

// minVerPattern matches "M", "M.m", "M.m.p", and "M.m.p-pre"; it never
// matches anything containing an explicit comparator like '^' or '~'.
var minVerPattern = regexp.MustCompile(`^(\d+)(?:\.(\d+)(?:\.(\d+)(?:-([0-9A-Za-z.-]+))?)?)?$`)

// ParseMinLangVersion parses raw against the bare-version grammar.
func ParseMinLangVersion(raw string) (MinLangVersion, error) {
	if strings.ContainsRune(raw, '^') {
		return MinLangVersion{}, fmt.Errorf("rust_version %q must not contain an explicit caret operator", raw)
	}

	m := minVerPattern.FindStringSubmatch(raw)
	if m == nil {
		return MinLangVersion{}, fmt.Errorf("rust_version %q is not a bare version", raw)
	}

	major, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return MinLangVersion{}, fmt.Errorf("rust_version %q: %w", raw, err)
	}

	v := MinLangVersion{Major: major, Pre: m[4]}
	if m[2] != "" {
		minor, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return MinLangVersion{}, fmt.Errorf("rust_version %q: %w", raw, err)
		}
		v.Minor = &minor
	}
	if m[3] != "" {
		patch, err := strconv.ParseUint(m[3], 10, 64)
		if err != nil {
			return MinLangVersion{}, fmt.Errorf("rust_version %q: %w", raw, err)
		}
		v.Patch = &patch
	}

	return v, nil
}

// String renders "M[.m[.p[-pre]]]".
func (v MinLangVersion) String() string {
	s := strconv.FormatUint(v.Major, 10)
	if v.Minor != nil {
		s += "." + strconv.FormatUint(*v.Minor, 10)
		if v.Patch != nil {
			s += "." + strconv.FormatUint(*v.Patch, 10)
		}
	}
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	return s
}

// MarshalJSON renders the version as its canonical string form.
func (v MinLangVersion) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON parses the version from its canonical string form.
func (v *MinLangVersion) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseMinLangVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
