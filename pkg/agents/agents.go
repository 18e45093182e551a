// Package agents indexes agent definitions: markdown files directly under the
// user's agents directory. The index follows the same load/cache/search
// contract as the skills index but has a single root and no location concept.
package agents

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hanjia/skilldex/pkg/catalog"
	"github.com/hanjia/skilldex/pkg/descriptor"
	"github.com/hanjia/skilldex/pkg/logger"
)

// Agent is one indexed agent entry.
type Agent = descriptor.MarkdownEntry

// Detail is an Agent plus its markdown body and optional companion README,
// read per call and never cached.
type Detail struct {
	Agent
	Content string `json:"content"`
	Readme  string `json:"readme,omitempty"`
}

type snapshot struct {
	entries  []Agent
	diags    []catalog.Diagnostic
	loadedAt time.Time
}

// Index discovers and caches agents. Safe for concurrent use.
type Index struct {
	root string

	mu    sync.Mutex
	cache *snapshot
}

// Option configures an Index.
type Option func(*Index) error

// WithRoot overrides the scanned agents directory.
func WithRoot(root string) Option {
	return func(ix *Index) error {
		ix.root = root
		return nil
	}
}

// NewIndex creates an agent index over <home>/.claude/agents unless
// overridden.
func NewIndex(opts ...Option) (*Index, error) {
	paths, err := catalog.DefaultPaths()
	if err != nil {
		return nil, err
	}

	ix := &Index{root: paths.Agents}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Load returns the cached entries, scanning first when the cache is empty or
// force is set. Callers must not mutate the returned slice.
func (ix *Index) Load(ctx context.Context, force bool) []Agent {
	ix.mu.Lock()
	if ix.cache != nil && !force {
		entries := ix.cache.entries
		ix.mu.Unlock()
		return entries
	}
	ix.mu.Unlock()

	entries, diags := descriptor.ScanMarkdown(ix.root)
	for _, d := range diags {
		logger.G(ctx).WithField("path", d.Path).Warn(d.Reason)
	}
	logger.G(ctx).WithField("count", len(entries)).Debug("loaded agents")

	snap := &snapshot{entries: entries, diags: diags, loadedAt: time.Now()}
	ix.mu.Lock()
	ix.cache = snap
	ix.mu.Unlock()

	return snap.entries
}

// Details returns the agent matching name exactly, with its markdown body and
// companion README attached. A miss returns (nil, nil); an unreadable body on
// a hit is an error for the whole call.
func (ix *Index) Details(ctx context.Context, name string) (*Detail, error) {
	for _, agent := range ix.Load(ctx, false) {
		if agent.Name != name {
			continue
		}

		content, err := os.ReadFile(agent.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read agent %q", name)
		}

		detail := &Detail{Agent: agent, Content: string(content)}
		detail.Readme, _ = descriptor.ReadIfExists(filepath.Join(ix.root, name, descriptor.ReadmeFileName))
		return detail, nil
	}
	return nil, nil
}

// Search returns entries whose name or description contains query
// case-insensitively. An empty query matches everything.
func (ix *Index) Search(ctx context.Context, query string) []Agent {
	var matches []Agent
	for _, agent := range ix.Load(ctx, false) {
		if catalog.Matches(query, agent.Name, agent.Description) {
			matches = append(matches, agent)
		}
	}
	return matches
}

// ClearCache resets the index to the not-loaded state. Idempotent.
func (ix *Index) ClearCache() {
	ix.mu.Lock()
	ix.cache = nil
	ix.mu.Unlock()
}

// Diagnostics returns the skip events recorded by the last load, or nil when
// the cache is unloaded.
func (ix *Index) Diagnostics() []catalog.Diagnostic {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.cache == nil {
		return nil
	}
	return ix.cache.diags
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
