// Package filesystem implements driver.StorageDriver backed by a local
// directory tree, adapted from the teacher's
// registry/storage/driver/filesystem driver: same write-to-temp-then-
// rename discipline for atomic PutContent, same directory-existence
// check at construction.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	driver "github.com/Palladinium/quartermaster/registry/storage/driver"
	"github.com/Palladinium/quartermaster/registry/storage/driver/factory"
)

const driverName = "filesystem"

// archivePrefix is joined onto any path that names an archive blob (one
// ending in ".crate") before it is resolved under rootDirectory; index
// paths are joined unprefixed. This is spec.md §4.3's "Local variant"
// layout (archives under `{root}/crates/`, index files directly under
// `{root}`), matching the same archive-vs-index discriminator the s3
// driver applies to its own keys.
const archivePrefix = "crates"

func init() {
	factory.Register(driverName, &filesystemDriverFactory{})
}

type filesystemDriverFactory struct{}

func (filesystemDriverFactory) Create(parameters map[string]interface{}) (driver.StorageDriver, error) {
	root, ok := parameters["rootdirectory"].(string)
	if !ok || root == "" {
		return nil, fmt.Errorf("filesystem driver requires a non-empty rootdirectory parameter")
	}
	return New(root)
}

// Driver is a driver.StorageDriver implementation backed by a local
// filesystem. All paths are joined under rootDirectory, which must
// already exist at construction time (spec.md §4.3 "Local variant").
type Driver struct {
	rootDirectory string
}

// New constructs a Driver rooted at rootDirectory, verifying the
// directory exists.
func New(rootDirectory string) (*Driver, error) {
	info, err := os.Stat(rootDirectory)
	if err != nil {
		return nil, fmt.Errorf("filesystem: root directory %q: %w", rootDirectory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filesystem: root %q is not a directory", rootDirectory)
	}
	return &Driver{rootDirectory: rootDirectory}, nil
}

func (d *Driver) Name() string { return driverName }

func (d *Driver) fullPath(p string) string {
	if strings.HasSuffix(p, ".crate") {
		return filepath.Join(d.rootDirectory, archivePrefix, filepath.FromSlash(p))
	}
	return filepath.Join(d.rootDirectory, filepath.FromSlash(p))
}

// GetContent retrieves the content stored at path as a []byte.
func (d *Driver) GetContent(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(d.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, driver.PathNotFoundError{Path: path, DriverName: driverName}
		}
		return nil, driver.Error{DriverName: driverName, Enclosed: err}
	}
	return content, nil
}

// PutContent stores content at path, writing to a temporary file first
// and renaming it into place so that concurrent readers never observe a
// partially-written object (this is the filesystem-level half of
// spec.md's ordering discipline; the registry lock in registry/core
// provides the higher-level serialization).
func (d *Driver) PutContent(ctx context.Context, path string, content []byte) error {
	full := d.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return driver.Error{DriverName: driverName, Enclosed: err}
	}

	tmp := full + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return driver.Error{DriverName: driverName, Enclosed: err}
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return driver.Error{DriverName: driverName, Enclosed: err}
	}
	return nil
}

// Reader returns a lazy byte stream for the object at path, starting at
// offset.
func (d *Driver) Reader(ctx context.Context, path string, offset int64) (io.ReadCloser, error) {
	f, err := os.Open(d.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, driver.PathNotFoundError{Path: path, DriverName: driverName}
		}
		return nil, driver.Error{DriverName: driverName, Enclosed: err}
	}

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, driver.Error{DriverName: driverName, Enclosed: err}
		}
	}
	return f, nil
}
