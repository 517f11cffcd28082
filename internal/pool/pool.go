// Package pool tracks per-server activity status behind a short TTL so that hot
// paths (tool routing in particular) avoid a backend round trip per call.
package pool

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/orchd-ai/orchd/internal/backend"
	"github.com/orchd-ai/orchd/internal/cache"
	"github.com/orchd-ai/orchd/internal/errors"
)

// DefaultStatusTTL is how long a cached activity status is trusted before the
// backend is consulted again.
const DefaultStatusTTL = 30 * time.Second

// StatusBackend is the subset of the control plane the status cache needs.
type StatusBackend interface {
	ActiveServers(ctx context.Context) ([]string, error)
	ListInventory(ctx context.Context) ([]string, error)
}

var _ StatusBackend = (backend.ControlPlane)(nil)

// StatusCache caches whether each server is currently active.
//
// A server that exists but is disabled caches as inactive; a server absent from
// the backend inventory is reported as errors.ErrServerNotFound and never
// cached, so the two cases stay distinguishable. Backend failures and timeouts
// leave previously cached entries untouched.
// NewStatusCache should be used to create instances of StatusCache.
type StatusCache struct {
	backend StatusBackend
	logger  hclog.Logger
	ttl     time.Duration

	mu      sync.Mutex
	entries map[string]*cache.Entry[bool]
}

// NewStatusCache creates a status cache over the given backend. A non-positive
// TTL falls back to DefaultStatusTTL.
func NewStatusCache(logger hclog.Logger, sb StatusBackend, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	return &StatusCache{
		backend: sb,
		logger:  logger.Named("pool"),
		ttl:     ttl,
		entries: make(map[string]*cache.Entry[bool]),
	}
}

// Status reports whether the server is active, serving from cache while the
// entry is fresh. On a miss the backend's active list is consulted; a server in
// neither the active list nor the inventory yields errors.ErrServerNotFound.
func (c *StatusCache) Status(ctx context.Context, server string) (bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[server]
	if ok {
		if active, fresh := entry.Get(); fresh {
			c.mu.Unlock()
			return active, nil
		}
	}
	c.mu.Unlock()

	active, err := c.backend.ActiveServers(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(active, server) {
		c.store(server, true)
		return true, nil
	}

	inventory, err := c.backend.ListInventory(ctx)
	if err != nil {
		return false, err
	}
	if !slices.Contains(inventory, server) {
		return false, fmt.Errorf("%w: %s", errors.ErrServerNotFound, server)
	}

	c.store(server, false)
	return false, nil
}

// MarkActive records a status observed out of band, e.g. right after an enable
// or disable command succeeded.
func (c *StatusCache) MarkActive(server string, active bool) {
	c.store(server, active)
}

// Invalidate expires the cached status for one server. The next Status call
// will re-verify against the backend.
func (c *StatusCache) Invalidate(server string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[server]; ok {
		entry.Invalidate()
	}
}

// InvalidateAll expires every cached status.
func (c *StatusCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		entry.Invalidate()
	}
}

func (c *StatusCache) store(server string, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[server]
	if !ok {
		entry = cache.NewEntry[bool](c.ttl)
		c.entries[server] = entry
	}
	entry.Set(active)
}
