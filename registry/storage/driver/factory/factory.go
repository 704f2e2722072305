// Package factory provides the teacher's driver-registration pattern
// (registry/storage/driver/factory) unchanged in shape: storage
// backends register a named constructor at init time, and callers
// create one by name from configuration without a compile-time
// dependency on the concrete backend package.
package factory

import (
	"context"
	"fmt"
	"sync"

	driver "github.com/Palladinium/quartermaster/registry/storage/driver"
)

// StorageDriverFactory constructs a driver.StorageDriver from a
// parameters map, as decoded from the storage.* configuration section.
type StorageDriverFactory interface {
	Create(parameters map[string]interface{}) (driver.StorageDriver, error)
}

var (
	mu         sync.Mutex
	factories  = make(map[string]StorageDriverFactory)
)

// Register makes a storage driver available by name. Panics if name is
// already registered or factory is nil, since this only ever happens at
// package init time and a collision indicates a build-time bug.
func Register(name string, factory StorageDriverFactory) {
	mu.Lock()
	defer mu.Unlock()

	if factory == nil {
		panic("factory: nil StorageDriverFactory for " + name)
	}
	if _, ok := factories[name]; ok {
		panic("factory: " + name + " already registered")
	}
	factories[name] = factory
}

// Create constructs a new driver.StorageDriver by name.
func Create(ctx context.Context, name string, parameters map[string]interface{}) (driver.StorageDriver, error) {
	mu.Lock()
	f, ok := factories[name]
	mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("factory: no storage driver registered for %q", name)
	}
	return f.Create(parameters)
}
