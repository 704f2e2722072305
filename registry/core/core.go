// Package core implements RegistryCore (spec.md §4.4): the five
// operations a client performs against the registry, serialized by the
// single process-wide registry lock spec.md §5 describes. It is
// grounded on the teacher's registry.registry / repository split
// (registry/storage/registry.go), adapted from a content-addressed blob
// store to the simpler index-file-plus-archive model this registry
// implements: one StorageBackend, one lock, no repository hierarchy.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/Palladinium/quartermaster/internal/dcontext"
	"github.com/Palladinium/quartermaster/registry/api/errcode"
	"github.com/Palladinium/quartermaster/registry/auth"
	"github.com/Palladinium/quartermaster/registry/index"
	"github.com/Palladinium/quartermaster/registry/index/semver"
	"github.com/Palladinium/quartermaster/registry/name"
	driver "github.com/Palladinium/quartermaster/registry/storage/driver"
)

// defaultMaxPublishSize is spec.md §6's default crates.max_publish_size.
const defaultMaxPublishSize = 100 * 1024 * 1024

// Config holds the parameters RegistryCore needs beyond its storage
// backend and authorizer.
type Config struct {
	// RootURL is the client-visible base URL, preserved verbatim
	// including any trailing slash (spec.md §4.4.1).
	RootURL string
	// MaxPublishSize caps the framed upload body; zero selects
	// defaultMaxPublishSize.
	MaxPublishSize int64
}

func (c Config) maxPublishSize() int64 {
	if c.MaxPublishSize > 0 {
		return c.MaxPublishSize
	}
	return defaultMaxPublishSize
}

// Core is the registry's central state machine: one storage backend,
// one authorizer, one reader/writer lock guarding every operation, per
// spec.md §5. Constructed once at startup and shared, read-only after
// that point, across every request handler.
type Core struct {
	cfg     Config
	storage driver.StorageDriver
	authz   *auth.Authorizer

	mu sync.RWMutex
}

// New constructs a Core over the given storage backend and authorizer.
func New(cfg Config, storage driver.StorageDriver, authz *auth.Authorizer) *Core {
	return &Core{cfg: cfg, storage: storage, authz: authz}
}

// Authorizer returns the configured Authorizer, for handlers that need
// to check a presented token before calling into Core.
func (c *Core) Authorizer() *auth.Authorizer { return c.authz }

// IndexConfig is the JSON document returned by FetchIndexConfig.
type IndexConfig struct {
	Dl           string `json:"dl"`
	Api          string `json:"api"`
	AuthRequired bool   `json:"auth_required"`
}

// FetchIndexConfig implements spec.md §4.4.1. dl and api are derived
// from RootURL with no normalization: trailing-slash handling is
// preserved verbatim, since clients concatenate paths themselves.
func (c *Core) FetchIndexConfig() IndexConfig {
	return IndexConfig{
		Dl:           c.cfg.RootURL + "crates",
		Api:          c.cfg.RootURL,
		AuthRequired: c.authz.Required(),
	}
}

// Healthy probes the storage backend with a read that tolerates
// PathNotFoundError, so the health check reports failure only on a
// genuine storage-layer problem rather than on an empty registry.
func (c *Core) Healthy(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, err := c.storage.GetContent(ctx, "healthcheck")
	if err != nil && !driver.IsNotFound(err) {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// FetchIndex implements spec.md §4.4.2: parse path via NameCodec, read
// the index file under a shared lock.
func (c *Core) FetchIndex(ctx context.Context, path string) ([]byte, error) {
	n, err := name.FromIndexPath(path)
	if err != nil {
		return nil, errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	content, err := c.storage.GetContent(ctx, n.IndexPath())
	if err != nil {
		return nil, c.storageReadError(ctx, err)
	}
	return content, nil
}

// FetchArchive implements spec.md §4.4.3: validate name and version,
// stream the archive bytes under a shared lock.
func (c *Core) FetchArchive(ctx context.Context, rawName, rawVersion string) (io.ReadCloser, error) {
	n, err := name.Validate(rawName)
	if err != nil {
		return nil, errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}
	v, _, _, err := semver.Parse(rawVersion)
	if err != nil {
		return nil, errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	reader, err := c.storage.Reader(ctx, n.ArchivePath(v), 0)
	if err != nil {
		return nil, c.storageReadError(ctx, err)
	}
	return reader, nil
}

// PublishWarnings carries the non-fatal diagnostics spec.md §4.4.4 step
// 14 returns alongside a successful publish.
type PublishWarnings struct {
	InvalidCategories []string `json:"invalid_categories"`
	InvalidBadges     []string `json:"invalid_badges"`
	Other             []string `json:"other"`
}

// PublishResult is the JSON body of a successful publish.
type PublishResult struct {
	Warnings PublishWarnings `json:"warnings"`
}

// publishMetadata is the JSON object embedded in the publish upload's
// first frame. It is a superset of index.IndexEntry's fields (the real
// wire format carries authorship, license, and categorization metadata
// this registry does not persist); only the fields RegistryCore actually
// consults are declared; the rest are dropped silently by
// encoding/json, matching spec.md §9's note that downstream tooling
// treats links/rust_version loosely and authoritative values come from
// the archive manifest regardless.
type publishMetadata struct {
	Name        string              `json:"name"`
	Vers        string              `json:"vers"`
	Deps        []publishDependency `json:"deps"`
	Features    map[string][]string `json:"features"`
	Links       *string             `json:"links"`
	RustVersion *string             `json:"rust_version"`
}

type publishDependency struct {
	Name               string               `json:"name"`
	ExplicitNameInToml string               `json:"explicit_name_in_toml"`
	Req                string               `json:"version_req"`
	Features           []string             `json:"features"`
	Optional           bool                 `json:"optional"`
	DefaultFeatures    bool                 `json:"default_features"`
	Target             *string              `json:"target"`
	Kind               index.DependencyKind `json:"kind"`
	Registry           *string              `json:"registry"`
}

// Publish implements spec.md §4.4.4. archiveLength is the declared
// Content-Length of the request body; a negative value means unknown.
// Steps are numbered in comments to match the spec's enumeration.
func (c *Core) Publish(ctx context.Context, body io.Reader, contentLength int64) (PublishResult, error) {
	// Step 1: unknown length.
	if contentLength < 0 {
		return PublishResult{}, errcode.ErrorCodeLengthRequired.WithDetail(nil)
	}
	// Step 2: declared length already over budget.
	max := c.cfg.maxPublishSize()
	if contentLength > max {
		return PublishResult{}, errcode.ErrorCodePayloadTooLarge.WithDetail(nil)
	}

	// Step 3: collect the body, re-checking the limit against actual
	// bytes read in case Content-Length understated the truth.
	limited := io.LimitReader(body, max+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		dcontext.GetLogger(ctx).WithError(err).Error("publish: reading request body")
		return PublishResult{}, errcode.ErrorCodeInternal.WithDetail(nil)
	}
	if int64(len(raw)) > max {
		return PublishResult{}, errcode.ErrorCodePayloadTooLarge.WithDetail(nil)
	}

	// Step 4: parse framing with strict bounds checks.
	metadataJSON, archiveBytes, err := parseFrames(raw)
	if err != nil {
		return PublishResult{}, errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}

	// Step 5: deserialize metadata, path-tracked by encoding/json's own
	// error messages (intentionally surfaced verbatim per spec.md §7).
	var meta publishMetadata
	if err := json.Unmarshal(metadataJSON, &meta); err != nil {
		return PublishResult{}, errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}
	n, err := name.Validate(meta.Name)
	if err != nil {
		return PublishResult{}, errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}

	// Step 6: checksum.
	cksum := digest.FromBytes(archiveBytes).Encoded()

	// Step 7: strip build metadata, warn if present.
	var warnings []string
	v, hadBuildMetadata, buildMetadata, err := semver.Parse(meta.Vers)
	if err != nil {
		return PublishResult{}, errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}
	if hadBuildMetadata {
		warnings = append(warnings, fmt.Sprintf("Build metadata in crate version was ignored: %s", buildMetadata))
	}

	var rustVersion *index.MinLangVersion
	if meta.RustVersion != nil && *meta.RustVersion != "" {
		parsed, err := index.ParseMinLangVersion(*meta.RustVersion)
		if err != nil {
			return PublishResult{}, errcode.ErrorCodeBadRequest.WithDetail(err.Error())
		}
		rustVersion = &parsed
	}

	deps := make([]index.Dependency, len(meta.Deps))
	for i, d := range meta.Deps {
		deps[i] = index.Dependency{
			Name:            d.Name,
			Req:             d.Req,
			Features:        d.Features,
			Optional:        d.Optional,
			DefaultFeatures: d.DefaultFeatures,
			Target:          d.Target,
			Kind:            d.Kind,
			Registry:        d.Registry,
		}
		deps[i].ApplyExplicitName(d.ExplicitNameInToml)
	}

	// Step 8: write-lock for the remainder of the operation.
	c.mu.Lock()
	defer c.mu.Unlock()

	// Step 9: read current index, treating NotFound as empty.
	file, err := c.readIndexForWrite(ctx, n.IndexPath())
	if err != nil {
		return PublishResult{}, err
	}

	// Step 10: reject duplicate versions.
	if file.FindVersion(v) != -1 {
		return PublishResult{}, errcode.ErrorCodeBadRequest.WithDetail(
			fmt.Sprintf("Crate %s already has version %s", n.String(), v.String()))
	}

	// Step 11: construct the new entry.
	entry := index.IndexEntry{
		Name:        n.String(),
		Vers:        v,
		Deps:        deps,
		Cksum:       cksum,
		Features:    meta.Features,
		Yanked:      false,
		Links:       meta.Links,
		RustVersion: rustVersion,
	}

	// Step 12: archive before index (I5).
	if err := c.storage.PutContent(ctx, n.ArchivePath(v), archiveBytes); err != nil {
		dcontext.GetLogger(ctx).WithError(err).Error("publish: writing archive")
		return PublishResult{}, errcode.ErrorCodeInternal.WithDetail(nil)
	}

	// Step 13: write the updated index.
	file.Entries = append(file.Entries, entry)
	if err := c.writeIndex(ctx, n.IndexPath(), file); err != nil {
		return PublishResult{}, err
	}

	// Step 14.
	return PublishResult{Warnings: PublishWarnings{Other: warnings}}, nil
}

// Yank implements the yank half of spec.md §4.4.5.
func (c *Core) Yank(ctx context.Context, rawName, rawVersion string) error {
	return c.setYanked(ctx, rawName, rawVersion, true)
}

// Unyank implements the unyank half of spec.md §4.4.5.
func (c *Core) Unyank(ctx context.Context, rawName, rawVersion string) error {
	return c.setYanked(ctx, rawName, rawVersion, false)
}

func (c *Core) setYanked(ctx context.Context, rawName, rawVersion string, yanked bool) error {
	n, err := name.Validate(rawName)
	if err != nil {
		return errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}
	v, _, _, err := semver.Parse(rawVersion)
	if err != nil {
		return errcode.ErrorCodeBadRequest.WithDetail(err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.storage.GetContent(ctx, n.IndexPath())
	if err != nil {
		if driver.IsNotFound(err) {
			return errcode.ErrorCodeNotFound.WithDetail(nil)
		}
		dcontext.GetLogger(ctx).WithError(err).Error("yank: reading index")
		return errcode.ErrorCodeInternal.WithDetail(nil)
	}

	file, err := index.Parse(raw)
	if err != nil {
		dcontext.GetLogger(ctx).WithError(err).Error("yank: parsing index")
		return errcode.ErrorCodeInternal.WithDetail(nil)
	}

	i := file.FindVersion(v)
	if i == -1 {
		return errcode.ErrorCodeNotFound.WithDetail(nil)
	}

	file.Entries[i].Yanked = yanked
	return c.writeIndex(ctx, n.IndexPath(), file)
}

// readIndexForWrite reads the index file at path, treating NotFound as
// an empty File (spec.md §4.4.4 step 9) since a first publish has no
// prior index to read.
func (c *Core) readIndexForWrite(ctx context.Context, path string) (index.File, error) {
	raw, err := c.storage.GetContent(ctx, path)
	if err != nil {
		if driver.IsNotFound(err) {
			return index.File{}, nil
		}
		dcontext.GetLogger(ctx).WithError(err).Error("publish: reading index")
		return index.File{}, errcode.ErrorCodeInternal.WithDetail(nil)
	}

	file, err := index.Parse(raw)
	if err != nil {
		dcontext.GetLogger(ctx).WithError(err).Error("publish: parsing index")
		return index.File{}, errcode.ErrorCodeInternal.WithDetail(nil)
	}
	return file, nil
}

func (c *Core) writeIndex(ctx context.Context, path string, file index.File) error {
	serialized, err := file.Serialize()
	if err != nil {
		dcontext.GetLogger(ctx).WithError(err).Error("writing index: serializing")
		return errcode.ErrorCodeInternal.WithDetail(nil)
	}
	if err := c.storage.PutContent(ctx, path, serialized); err != nil {
		dcontext.GetLogger(ctx).WithError(err).Error("writing index: storage")
		return errcode.ErrorCodeInternal.WithDetail(nil)
	}
	return nil
}

// storageReadError classifies a StorageDriver error from a read path
// (fetch_index, fetch_archive) into the matching errcode.
func (c *Core) storageReadError(ctx context.Context, err error) error {
	if driver.IsNotFound(err) {
		return errcode.ErrorCodeNotFound.WithDetail(nil)
	}
	dcontext.GetLogger(ctx).WithError(err).Error("storage read failed")
	return errcode.ErrorCodeInternal.WithDetail(nil)
}

// parseFrames splits the publish upload's raw bytes into its metadata
// and archive frames per spec.md §6: uint32_le(L1)·json[L1]·uint32_le(L2)·archive[L2].
func parseFrames(raw []byte) (metadataJSON, archiveBytes []byte, err error) {
	if len(raw) < 4 {
		return nil, nil, fmt.Errorf("publish body too short to contain a metadata length")
	}
	l1 := int(leUint32(raw[0:4]))
	if l1 < 0 || 4+l1 > len(raw) {
		return nil, nil, fmt.Errorf("metadata length %d exceeds body size", l1)
	}
	metadataJSON = raw[4 : 4+l1]

	rest := raw[4+l1:]
	if len(rest) < 4 {
		return nil, nil, fmt.Errorf("publish body too short to contain an archive length")
	}
	l2 := int(leUint32(rest[0:4]))
	if l2 < 0 || 4+l2 > len(rest) {
		return nil, nil, fmt.Errorf("archive length %d exceeds body size", l2)
	}
	archiveBytes = rest[4 : 4+l2]

	return metadataJSON, archiveBytes, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
