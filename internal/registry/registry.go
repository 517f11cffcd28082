// Package registry maintains the TTL-gated cache of discovered server metadata,
// merged with locally configured per-server overrides.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/orchd-ai/orchd/internal/cache"
	"github.com/orchd-ai/orchd/internal/discover"
	"github.com/orchd-ai/orchd/internal/filter"
)

// DefaultRefreshInterval is the debounce window for discovery: refreshes inside
// it are served from the cached snapshot without a backend round trip.
const DefaultRefreshInterval = 5 * time.Minute

// Override is a locally configured adjustment to discovered metadata.
// Overrides are applied after discovery, so they always win.
type Override struct {
	Category    string
	Description string
}

// Discoverer is the discovery dependency the registry refreshes from.
type Discoverer interface {
	DiscoverAll(ctx context.Context) (map[string]discover.ServerMetadata, error)
}

// Registry caches discovery output behind a refresh debounce.
// NewRegistry should be used to create instances of Registry.
type Registry struct {
	discovery Discoverer
	overrides map[string]Override
	logger    hclog.Logger

	mu       sync.Mutex
	snapshot *cache.Entry[map[string]discover.ServerMetadata]
}

// NewRegistry creates a registry over the given discoverer. A non-positive
// refresh interval falls back to DefaultRefreshInterval.
func NewRegistry(logger hclog.Logger, discovery Discoverer, overrides map[string]Override, refreshInterval time.Duration) *Registry {
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	if overrides == nil {
		overrides = map[string]Override{}
	}
	return &Registry{
		discovery: discovery,
		overrides: overrides,
		logger:    logger.Named("registry"),
		snapshot:  cache.NewEntry[map[string]discover.ServerMetadata](refreshInterval),
	}
}

// Refresh returns the current metadata map, re-running discovery only when forced
// or when the cached snapshot has outlived the refresh interval. Concurrent
// refreshes inside the interval all observe the cached snapshot and perform no
// backend round trip.
func (r *Registry) Refresh(ctx context.Context, force bool) (map[string]discover.ServerMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !force {
		if cached, ok := r.snapshot.Get(); ok {
			r.logger.Debug("Using cached server registry")
			return cached, nil
		}
	}

	r.logger.Info("Refreshing server registry")
	discovered, err := r.discovery.DiscoverAll(ctx)
	if err != nil {
		return nil, err
	}

	for name, override := range r.overrides {
		meta, ok := discovered[name]
		if !ok {
			continue
		}
		if override.Category != "" {
			meta.Category = override.Category
		}
		if override.Description != "" {
			meta.Description = override.Description
		}
		meta.ConfigOverride = map[string]any{
			"category":    override.Category,
			"description": override.Description,
		}
		discovered[name] = meta
	}

	r.snapshot.Set(discovered)
	r.logger.Info("Discovered servers", "count", len(discovered))

	return discovered, nil
}

// Servers returns the cached metadata map without triggering discovery.
// The map may be stale or empty if no refresh has happened yet.
func (r *Registry) Servers() map[string]discover.ServerMetadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.Value()
}

// Get returns the cached metadata for a single server.
func (r *Registry) Get(name string) (discover.ServerMetadata, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.snapshot.Value()[name]
	return meta, ok
}

// LastRefreshed returns when the snapshot was last rebuilt, or the zero time.
func (r *Registry) LastRefreshed() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.RefreshedAt()
}

var catalogMatchers = map[string]filter.Predicate[discover.ServerMetadata]{
	"category": filter.Equals(func(m discover.ServerMetadata) string { return m.Category }),
	"name":     filter.Partial(func(m discover.ServerMetadata) string { return m.Name }),
	"status":   filter.Equals(func(m discover.ServerMetadata) string { return string(m.Status) }),
}

// Catalog returns a deterministic view over the cached metadata, sorted by
// (category, name). An empty categoryFilter matches all categories; when
// includeInactive is false only enabled servers are returned.
func (r *Registry) Catalog(categoryFilter string, includeInactive bool) []discover.ServerMetadata {
	filters := map[string]string{}
	if categoryFilter != "" {
		filters["category"] = categoryFilter
	}

	out := make([]discover.ServerMetadata, 0)
	for _, meta := range r.Servers() {
		if !includeInactive && meta.Status != discover.StatusEnabled {
			continue
		}
		if !filter.Match(meta, filters, catalogMatchers) {
			continue
		}
		out = append(out, meta)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ByCategory returns all cached servers in a category, sorted by name.
func (r *Registry) ByCategory(category string) []discover.ServerMetadata {
	return r.Catalog(category, true)
}

// Categories returns the distinct categories present in the cached snapshot, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	for _, meta := range r.Servers() {
		seen[meta.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
