package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Palladinium/quartermaster/registry/api/errcode"
	"github.com/Palladinium/quartermaster/registry/auth"
	"github.com/Palladinium/quartermaster/registry/storage/driver/filesystem"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	d, err := filesystem.New(t.TempDir())
	require.NoError(t, err)
	return New(Config{RootURL: "https://example.test/"}, d, auth.Disabled())
}

func frame(metadata map[string]interface{}, archive []byte) []byte {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		panic(err)
	}

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

func TestFetchIndexConfig(t *testing.T) {
	c := newTestCore(t)
	cfg := c.FetchIndexConfig()
	require.Equal(t, "https://example.test/crates", cfg.Dl)
	require.Equal(t, "https://example.test/", cfg.Api)
	require.False(t, cfg.AuthRequired)
}

func TestPublishThenFetchIndexAndArchive(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	archive := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	body := frame(map[string]interface{}{
		"name": "foo", "vers": "1.2.3", "deps": []interface{}{}, "features": map[string]interface{}{},
	}, archive)

	result, err := c.Publish(ctx, bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	require.Empty(t, result.Warnings.Other)

	indexBytes, err := c.FetchIndex(ctx, "3/f/foo")
	require.NoError(t, err)
	require.Contains(t, string(indexBytes), `"name":"foo"`)
	require.Contains(t, string(indexBytes), `"vers":"1.2.3"`)

	sum := sha256.Sum256(archive)
	require.Contains(t, string(indexBytes), `"cksum":"`+hex.EncodeToString(sum[:])+`"`)

	reader, err := c.FetchArchive(ctx, "foo", "1.2.3")
	require.NoError(t, err)
	defer reader.Close()
	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, archive, got)
}

func TestPublishDuplicateVersionRejected(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	body := frame(map[string]interface{}{"name": "foo", "vers": "1.2.3", "deps": []interface{}{}, "features": map[string]interface{}{}}, []byte("x"))

	_, err := c.Publish(ctx, bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	_, err = c.Publish(ctx, bytes.NewReader(body), int64(len(body)))
	require.Error(t, err)
	coder, ok := err.(errcode.ErrorCoder)
	require.True(t, ok)
	require.Equal(t, errcode.ErrorCodeBadRequest, coder.ErrorCode())
}

func TestPublishStripsBuildMetadataAndWarns(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	body := frame(map[string]interface{}{"name": "foo", "vers": "1.0.0+build.5", "deps": []interface{}{}, "features": map[string]interface{}{}}, []byte("x"))

	result, err := c.Publish(ctx, bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	require.Equal(t, []string{"Build metadata in crate version was ignored: build.5"}, result.Warnings.Other)

	indexBytes, err := c.FetchIndex(ctx, "3/f/foo")
	require.NoError(t, err)
	require.Contains(t, string(indexBytes), `"vers":"1.0.0"`)
}

func TestYankThenUnyank(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	body := frame(map[string]interface{}{"name": "foo", "vers": "1.2.3", "deps": []interface{}{}, "features": map[string]interface{}{}}, []byte("x"))
	_, err := c.Publish(ctx, bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	require.NoError(t, c.Yank(ctx, "foo", "1.2.3"))
	indexBytes, err := c.FetchIndex(ctx, "3/f/foo")
	require.NoError(t, err)
	require.Contains(t, string(indexBytes), `"yanked":true`)

	require.NoError(t, c.Yank(ctx, "foo", "1.2.3"))
	indexBytes, err = c.FetchIndex(ctx, "3/f/foo")
	require.NoError(t, err)
	require.Contains(t, string(indexBytes), `"yanked":true`)

	require.NoError(t, c.Unyank(ctx, "foo", "1.2.3"))
	indexBytes, err = c.FetchIndex(ctx, "3/f/foo")
	require.NoError(t, err)
	require.Contains(t, string(indexBytes), `"yanked":false`)
}

func TestYankUnknownVersionNotFound(t *testing.T) {
	c := newTestCore(t)
	err := c.Yank(context.Background(), "foo", "9.9.9")
	require.Error(t, err)
	coder, ok := err.(errcode.ErrorCoder)
	require.True(t, ok)
	require.Equal(t, errcode.ErrorCodeNotFound, coder.ErrorCode())
}

func TestPublishUnknownLengthRejected(t *testing.T) {
	c := newTestCore(t)
	_, err := c.Publish(context.Background(), bytes.NewReader(nil), -1)
	require.Error(t, err)
	coder, ok := err.(errcode.ErrorCoder)
	require.True(t, ok)
	require.Equal(t, errcode.ErrorCodeLengthRequired, coder.ErrorCode())
}

func TestPublishOverLimitRejected(t *testing.T) {
	c := newTestCore(t)
	c.cfg.MaxPublishSize = 8
	body := frame(map[string]interface{}{"name": "foo", "vers": "1.2.3", "deps": []interface{}{}, "features": map[string]interface{}{}}, []byte("0123456789"))

	_, err := c.Publish(context.Background(), bytes.NewReader(body), int64(len(body)))
	require.Error(t, err)
	coder, ok := err.(errcode.ErrorCoder)
	require.True(t, ok)
	require.Equal(t, errcode.ErrorCodePayloadTooLarge, coder.ErrorCode())
}

func TestPublishMalformedFramingRejected(t *testing.T) {
	c := newTestCore(t)
	_, err := c.Publish(context.Background(), bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0x00}), 4)
	require.Error(t, err)
	coder, ok := err.(errcode.ErrorCoder)
	require.True(t, ok)
	require.Equal(t, errcode.ErrorCodeBadRequest, coder.ErrorCode())
}

