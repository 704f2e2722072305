package handlers

import (
	"bytes"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	authpkg "github.com/Palladinium/quartermaster/registry/auth"
	"github.com/Palladinium/quartermaster/registry/core"
	"github.com/Palladinium/quartermaster/registry/storage/driver/filesystem"
)

func newTestApp(t *testing.T, authz *authpkg.Authorizer) *App {
	t.Helper()
	d, err := filesystem.New(t.TempDir())
	require.NoError(t, err)
	c := core.New(core.Config{RootURL: "https://example.test/"}, d, authz)
	return New(c, logrus.NewEntry(logrus.StandardLogger()))
}

func frameBody(t *testing.T, metadata map[string]interface{}, archive []byte) []byte {
	t.Helper()
	metaJSON, err := json.Marshal(metadata)
	require.NoError(t, err)

	var buf bytes.Buffer
	var l1, l2 [4]byte
	binary.LittleEndian.PutUint32(l1[:], uint32(len(metaJSON)))
	binary.LittleEndian.PutUint32(l2[:], uint32(len(archive)))
	buf.Write(l1[:])
	buf.Write(metaJSON)
	buf.Write(l2[:])
	buf.Write(archive)
	return buf.Bytes()
}

func TestIndexConfigEndpoint(t *testing.T) {
	app := newTestApp(t, authpkg.Disabled())

	req := httptest.NewRequest(http.MethodGet, "/index/config.json", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "https://example.test/crates", got["dl"])
}

func TestPublishFetchIndexDownloadYank(t *testing.T) {
	app := newTestApp(t, authpkg.Disabled())
	archive := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	body := frameBody(t, map[string]interface{}{
		"name": "foo", "vers": "1.2.3", "deps": []interface{}{}, "features": map[string]interface{}{},
	}, archive)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/crates/new", bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/index/3/f/foo", nil)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"name":"foo"`)

	req = httptest.NewRequest(http.MethodGet, "/crates/foo/1.2.3/download", nil)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, archive, rec.Body.Bytes())

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/crates/foo/1.2.3/yank", nil)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestPublishRequiresTokenWhenAuthEnabled(t *testing.T) {
	authz, err := authpkg.StaticToken(hashOf(t, "s3kr1t"))
	require.NoError(t, err)
	app := newTestApp(t, authz)

	body := frameBody(t, map[string]interface{}{"name": "foo", "vers": "1.0.0", "deps": []interface{}{}, "features": map[string]interface{}{}}, []byte("x"))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/crates/new", bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/crates/new", bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.Header.Set("Authorization", "wrong")
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/crates/new", bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.Header.Set("Authorization", "s3kr1t")
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestIndexConfigNeverRequiresAuth(t *testing.T) {
	authz, err := authpkg.StaticToken(hashOf(t, "s3kr1t"))
	require.NoError(t, err)
	app := newTestApp(t, authz)

	req := httptest.NewRequest(http.MethodGet, "/index/config.json", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, true, got["auth_required"])
}

func hashOf(t *testing.T, token string) string {
	t.Helper()
	sum := sha512.Sum512([]byte(token))
	return hex.EncodeToString(sum[:])
}
