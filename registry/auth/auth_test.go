package auth

import (
	"crypto/sha512"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisabledAlwaysOk(t *testing.T) {
	a := Disabled()
	require.False(t, a.Required())
	require.Equal(t, Ok, a.Authorize(""))
	require.Equal(t, Ok, a.Authorize("whatever"))
}

func TestStaticTokenMatchesAndRejects(t *testing.T) {
	sum := sha512.Sum512([]byte("s3kr1t"))
	a, err := StaticToken(hex.EncodeToString(sum[:]))
	require.NoError(t, err)
	require.True(t, a.Required())

	require.Equal(t, Unauthorized, a.Authorize(""))
	require.Equal(t, Forbidden, a.Authorize("wrong"))
	require.Equal(t, Ok, a.Authorize("s3kr1t"))
}

func TestStaticTokenRejectsMalformedHash(t *testing.T) {
	_, err := StaticToken("not-hex")
	require.Error(t, err)

	_, err = StaticToken("ab")
	require.Error(t, err)
}

func TestTokenFileGeneratesThenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	a, err := TokenFile(path)
	require.NoError(t, err)
	require.True(t, a.Required())
	require.Equal(t, Unauthorized, a.Authorize(""))
	require.Equal(t, Ok, a.Authorize(a.token))

	b, err := TokenFile(path)
	require.NoError(t, err)
	require.Equal(t, a.token, b.token)
}

func TestTokenListMatchesAnyMember(t *testing.T) {
	a, err := TokenList([]string{"alice-token", "bob-token"})
	require.NoError(t, err)
	require.True(t, a.Required())

	require.Equal(t, Unauthorized, a.Authorize(""))
	require.Equal(t, Ok, a.Authorize("alice-token"))
	require.Equal(t, Ok, a.Authorize("bob-token"))
	require.Equal(t, Forbidden, a.Authorize("carol-token"))
}

func TestTokenListEmptyRejectsEverything(t *testing.T) {
	a, err := TokenList(nil)
	require.NoError(t, err)
	require.True(t, a.Required())
	require.Equal(t, Forbidden, a.Authorize("anything"))
}
