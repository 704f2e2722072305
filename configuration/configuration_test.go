package configuration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
version: "0.1"
server:
  rooturl: "https://example.test/"
storage:
  type: local
  local:
    rootdirectory: /var/lib/quartermaster
auth:
  type: token
  token:
    tokenhash: "deadbeef"
`

func TestParseAppliesDefaults(t *testing.T) {
	p := NewParser("QUARTERMASTER_TEST_UNSET_PREFIX")
	c, err := p.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	require.Equal(t, "https://example.test/", c.Server.RootURL)
	require.Equal(t, "local", c.Storage.Type)
	require.Equal(t, "/var/lib/quartermaster", c.Storage.Local.RootDirectory)
	require.Equal(t, "token", c.Auth.Type)
	require.Equal(t, "deadbeef", c.Auth.Token.TokenHash)

	require.Equal(t, int64(100*1024*1024), c.Crates.MaxPublishSize)
	require.Equal(t, []string{":8000"}, c.Server.Bind)
	require.Equal(t, "info", c.Log.Level)
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	p := NewParser("QUARTERMASTER_TEST_UNSET_PREFIX")
	_, err := p.Parse([]byte("version: \"9.9\"\n"))
	require.Error(t, err)
}

func TestEnvironmentOverlay(t *testing.T) {
	t.Setenv("QMTEST__SERVER__ROOTURL", `"https://overridden.test/"`)
	t.Setenv("QMTEST__CRATES__MAXPUBLISHSIZE", "42")

	p := NewParser("QMTEST")
	c, err := p.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	require.Equal(t, "https://overridden.test/", c.Server.RootURL)
	require.Equal(t, int64(42), c.Crates.MaxPublishSize)
}
