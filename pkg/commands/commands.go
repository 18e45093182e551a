// Package commands indexes slash-command definitions: markdown files directly
// under the user's commands directory. Same single-root contract as the agents
// index.
package commands

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

// Command is one indexed command entry.
type Command = descriptor.MarkdownEntry

// Detail is a Command plus its markdown body and optional companion README.
type Detail struct {
	Command
	Content string `json:"content"`
	Readme  string `json:"readme,omitempty"`
}

type snapshot struct {
	entries  []Command
	diags    []catalog.Diagnostic
	loadedAt time.Time
}

// Index discovers and caches commands. Safe for concurrent use.
type Index struct {
	root string

	mu    sync.Mutex
	cache *snapshot
}

// Option configures an Index.
type Option func(*Index) error

// WithRoot overrides the scanned commands directory.
func WithRoot(root string) Option {
	return func(ix *Index) error {
		ix.root = root
		return nil
	}
}

// NewIndex creates a command index over <home>/.claude/commands unless
// overridden.
func NewIndex(opts ...Option) (*Index, error) {
	paths, err := catalog.DefaultPaths()
	if err != nil {
		return nil, err
	}

	ix := &Index{root: paths.Commands}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Load returns the cached entries, scanning first when the cache is empty or
// force is set. Callers must not mutate the returned slice.
func (ix *Index) Load(ctx context.Context, force bool) []Command {
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
	logger.G(ctx).WithField("count", len(entries)).Debug("loaded commands")

	snap := &snapshot{entries: entries, diags: diags, loadedAt: time.Now()}
	ix.mu.Lock()
	ix.cache = snap
	ix.mu.Unlock()

	return snap.entries
}

// Details returns the command matching name exactly, with its markdown body
// and companion README attached. A miss returns (nil, nil).
func (ix *Index) Details(ctx context.Context, name string) (*Detail, error) {
	for _, command := range ix.Load(ctx, false) {
		if command.Name != name {
			continue
		}

		content, err := os.ReadFile(command.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read command %q", name)
		}

		detail := &Detail{Command: command, Content: string(content)}
		detail.Readme, _ = descriptor.ReadIfExists(filepath.Join(ix.root, name, descriptor.ReadmeFileName))
		return detail, nil
	}
	return nil, nil
}

// Search returns entries whose name or description contains query
// case-insensitively. An empty query matches everything.
func (ix *Index) Search(ctx context.Context, query string) []Command {
	var matches []Command
	for _, command := range ix.Load(ctx, false) {
		if catalog.Matches(query, command.Name, command.Description) {
			matches = append(matches, command)
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
