package semver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStripsBuildMetadata(t *testing.T) {
	v, had, meta, err := Parse("1.0.0+build.5")
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "build.5", meta)
	require.Equal(t, "1.0.0", v.String())
}

func TestParseNoBuildMetadata(t *testing.T) {
	v, had, _, err := Parse("1.2.3")
	require.NoError(t, err)
	require.False(t, had)
	require.Equal(t, "1.2.3", v.String())
}

func TestParsePrerelease(t *testing.T) {
	v, _, _, err := Parse("1.2.3-alpha.1")
	require.NoError(t, err)
	require.Equal(t, "1.2.3-alpha.1", v.String())
}

func TestEqualityIgnoresBuildMetadata(t *testing.T) {
	a, _, _, err := Parse("1.0.0+aaa")
	require.NoError(t, err)
	b, _, _, err := Parse("1.0.0+bbb")
	require.NoError(t, err)
	require.True(t, a.Equal(b))
}

func TestEqualityRespectsPrerelease(t *testing.T) {
	a, _, _, err := Parse("1.0.0-alpha")
	require.NoError(t, err)
	b, _, _, err := Parse("1.0.0")
	require.NoError(t, err)
	require.False(t, a.Equal(b))
}
