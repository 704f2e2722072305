package name

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRoundTrip is spec.md's P1: for every valid name, FromIndexPath(IndexPath(n)) == n.
func TestRoundTrip(t *testing.T) {
	cases := []string{
		"a",
		"ab",
		"abc",
		"abcd",
		"foo",
		"foo-bar",
		"foo_bar2",
		strings.Repeat("a", 64),
	}

	for _, raw := range cases {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			n, err := Validate(raw)
			require.NoError(t, err)

			got, err := FromIndexPath(n.IndexPath())
			require.NoError(t, err)
			require.True(t, n.Equal(got), "round trip mismatch: %s != %s", n, got)
		})
	}
}

func TestIndexPathShardingExamples(t *testing.T) {
	mustName := func(s string) Name {
		n, err := Validate(s)
		require.NoError(t, err)
		return n
	}

	require.Equal(t, "1/a", mustName("a").IndexPath())
	require.Equal(t, "2/ab", mustName("ab").IndexPath())
	require.Equal(t, "3/f/foo", mustName("foo").IndexPath())
	require.Equal(t, "ab/cd/abcdef", mustName("abcdef").IndexPath())
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]string{
		"":                "empty",
		"1abc":            "first character",
		"foo bar":         "forbidden character",
		"foo!":            "forbidden character",
		strings.Repeat("a", 65): "length",
		"self":            "reserved",
	}

	for raw, wantSubstr := range cases {
		raw, wantSubstr := raw, wantSubstr
		t.Run(raw, func(t *testing.T) {
			_, err := Validate(raw)
			require.Error(t, err)
			require.Contains(t, err.Error(), wantSubstr)
		})
	}
}

func TestValidateLowercases(t *testing.T) {
	n, err := Validate("Foo")
	require.NoError(t, err)
	require.Equal(t, "foo", n.String())
}

func TestFromIndexPathShardPrefixMismatchRejected(t *testing.T) {
	// "ab/cd/abcxxx" is inconsistent: the name would need to start with
	// "ab" "cd" but it starts with "ab" "cx" instead.
	_, err := FromIndexPath("ab/cd/abcxxx")
	require.Error(t, err)
}

func TestFromIndexPathTooManyComponents(t *testing.T) {
	_, err := FromIndexPath("a/b/c/d")
	require.Error(t, err)
}

func TestFromIndexPathRejectsParentComponents(t *testing.T) {
	_, err := FromIndexPath("../../etc/passwd")
	require.Error(t, err)
}
