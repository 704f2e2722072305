// Package driver defines StorageBackend (spec.md §4.3): the abstract
// read/write interface over index files and archive blobs, implemented
// by the filesystem and s3 sub-packages. It is a direct generalization
// of the teacher's registry/storage/driver package (itself a
// closed-set tagged union per registry/storage/driver/base's doc
// comment) from content-addressed blobs+manifests to package
// archives+indexes.
package driver

import (
	"context"
	"fmt"
	"io"
)

// StorageDriver is the capability interface spec.md §4.3 requires: two
// object kinds (index, archive), addressed by a flat relative path,
// with whole-file reads/writes and a streaming reader for archives.
type StorageDriver interface {
	// Name returns the human-readable name of the driver, e.g. "filesystem".
	Name() string

	// GetContent reads the entire object at path.
	//
	// Returns a PathNotFoundError when the backend positively observes
	// absence (a "no such file" or "404"), and a generic error for
	// anything ambiguous (permission errors, transport errors) — per
	// spec.md §4.3's NotFound-vs-IoError discipline, since mistaking an
	// unreadable file for a missing one would let RegistryCore overwrite
	// a real index during publish.
	GetContent(ctx context.Context, path string) ([]byte, error)

	// PutContent writes content at path, replacing any existing object.
	PutContent(ctx context.Context, path string, content []byte) error

	// Reader returns a finite lazy byte stream for the object at path,
	// starting at the given byte offset. Callers must Close it.
	Reader(ctx context.Context, path string, offset int64) (io.ReadCloser, error)
}

// Error wraps a driver-specific failure with the driver's name, mirroring
// the teacher's registry/storage/driver.Error (name + wrapped detail).
type Error struct {
	DriverName string
	Enclosed   error
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.DriverName, e.Enclosed)
}

func (e Error) Unwrap() error { return e.Enclosed }

// PathNotFoundError is returned when a backend positively observes that
// path does not exist.
type PathNotFoundError struct {
	Path       string
	DriverName string
}

func (e PathNotFoundError) Error() string {
	return fmt.Sprintf("%s: path not found: %s", e.DriverName, e.Path)
}

// IsNotFound reports whether err (or anything it wraps) is a
// PathNotFoundError, the sole signal RegistryCore trusts to distinguish
// "absent" from "ambiguous failure" (spec.md §4.3, §4.4.4 step 9).
func IsNotFound(err error) bool {
	var nf PathNotFoundError
	return asPathNotFound(err, &nf)
}

func asPathNotFound(err error, target *PathNotFoundError) bool {
	for err != nil {
		if nf, ok := err.(PathNotFoundError); ok {
			*target = nf
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
