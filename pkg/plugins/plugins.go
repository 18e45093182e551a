// Package plugins indexes installed plugins. Installed/enabled state comes
// from a Registry collaborator; the index itself only adds the caching and
// search contract shared with the other resource indexes.
package plugins

import (
	"context"
	"sync"
	"time"

	"github.com/hanjia/skilldex/pkg/catalog"
	"github.com/hanjia/skilldex/pkg/logger"
)

// Plugin is one installed plugin entry. Marketplace plays the role the
// location tag plays for skills; it is supplied by the registry rather than
// derived by the index.
type Plugin struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Marketplace string `json:"marketplace"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// Registry is the installed-plugin collaborator: it knows what is installed
// and which plugins are enabled.
type Registry interface {
	ListInstalled(ctx context.Context) ([]Plugin, error)
	Enable(ctx context.Context, id string) error
	Disable(ctx context.Context, id string) error
	IsEnabled(ctx context.Context, id string) (bool, error)
}

type snapshot struct {
	entries  []Plugin
	loadedAt time.Time
}

// Index caches the registry's view of installed plugins. Safe for concurrent
// use.
type Index struct {
	registry Registry

	mu    sync.Mutex
	cache *snapshot
}

// NewIndex creates a plugin index over the given registry.
func NewIndex(registry Registry) *Index {
	return &Index{registry: registry}
}

// Load returns the cached entries, asking the registry first when the cache
// is empty or force is set. A registry failure is logged and yields an empty
// loaded snapshot rather than an error.
func (ix *Index) Load(ctx context.Context, force bool) []Plugin {
	ix.mu.Lock()
	if ix.cache != nil && !force {
		entries := ix.cache.entries
		ix.mu.Unlock()
		return entries
	}
	ix.mu.Unlock()

	entries, err := ix.registry.ListInstalled(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to list installed plugins")
		entries = nil
	}

	snap := &snapshot{entries: entries, loadedAt: time.Now()}
	ix.mu.Lock()
	ix.cache = snap
	ix.mu.Unlock()

	return snap.entries
}

// Search returns entries whose id, name, marketplace, or description contains
// query case-insensitively. An empty query matches everything.
func (ix *Index) Search(ctx context.Context, query string) []Plugin {
	var matches []Plugin
	for _, plugin := range ix.Load(ctx, false) {
		if catalog.Matches(query, plugin.ID, plugin.Name, plugin.Marketplace, plugin.Description) {
			matches = append(matches, plugin)
		}
	}
	return matches
}

// Enable marks the plugin enabled through the registry. The cache keeps its
// stale enabled flags until the next forced load.
func (ix *Index) Enable(ctx context.Context, id string) error {
	return ix.registry.Enable(ctx, id)
}

// Disable marks the plugin disabled through the registry.
func (ix *Index) Disable(ctx context.Context, id string) error {
	return ix.registry.Disable(ctx, id)
}

// Status reports whether the plugin is enabled, straight from the registry.
func (ix *Index) Status(ctx context.Context, id string) (bool, error) {
	return ix.registry.IsEnabled(ctx, id)
}

// ClearCache resets the index to the not-loaded state. Idempotent.
func (ix *Index) ClearCache() {
	ix.mu.Lock()
	ix.cache = nil
	ix.mu.Unlock()
}

// LoadedAt returns the time of the last load, or the zero time when the cache
// is unloaded.
func (ix *Index) LoadedAt() time.Time {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.cache == nil {
		return time.Time{}
	}
	return ix.cache.loadedAt
}
