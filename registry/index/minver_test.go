package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMinLangVersionBare(t *testing.T) {
	v, err := ParseMinLangVersion("1.70")
	require.NoError(t, err)
	require.Equal(t, "1.70", v.String())

	v, err = ParseMinLangVersion("1.70.0")
	require.NoError(t, err)
	require.Equal(t, "1.70.0", v.String())

	v, err = ParseMinLangVersion("1")
	require.NoError(t, err)
	require.Equal(t, "1", v.String())
}

func TestParseMinLangVersionRejectsCaret(t *testing.T) {
	_, err := ParseMinLangVersion("^1.70")
	require.Error(t, err)
}
