package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/keyscope/domain/browse"
	"github.com/felixgeelhaar/keyscope/infrastructure/logging"
)

// Registry holds the open drivers for the named connections a client is
// browsing. Connection identity is what scopes cache keys, so every
// lookup goes through the same IDs the cache layer uses.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]*Driver
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]*Driver),
	}
}

// Connect opens a driver for the connection ID, replacing any previous
// driver under the same ID.
func (r *Registry) Connect(id string, cfg Config, opts ...ConfigOption) (*Driver, error) {
	driver, err := NewDriver(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", id, err)
	}

	r.mu.Lock()
	if prev, ok := r.drivers[id]; ok {
		_ = prev.Close()
	}
	r.drivers[id] = driver
	r.mu.Unlock()

	logging.Info().
		Add(logging.Component("registry")).
		Add(logging.ConnID(id)).
		Add(logging.Str("address", cfg.Address)).
		Msg("connection opened")

	return driver, nil
}

// Register adds an already-constructed driver under an ID.
func (r *Registry) Register(id string, driver *Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[id] = driver
}

// Get returns the driver for a connection ID.
func (r *Registry) Get(id string) (*Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	driver, ok := r.drivers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", browse.ErrConnectionNotFound, id)
	}
	return driver, nil
}

// Disconnect closes and removes the driver for a connection ID.
// Returns whether a driver was open.
func (r *Registry) Disconnect(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	driver, ok := r.drivers[id]
	if !ok {
		return false
	}
	_ = driver.Close()
	delete(r.drivers, id)
	return true
}

// Close closes every open driver.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, driver := range r.drivers {
		if err := driver.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.drivers, id)
	}
	return firstErr
}

// Ping verifies a single connection is alive.
func (r *Registry) Ping(ctx context.Context, id string) error {
	driver, err := r.Get(id)
	if err != nil {
		return err
	}
	return driver.Ping(ctx)
}
