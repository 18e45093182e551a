// Package skills indexes skill directories discovered across the user,
// project, and managed (plugin-contributed) locations. Entries are cached as a
// single flat snapshot that is wholesale-replaced on reload and never patched
// in place.
package skills

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

// Skill is one indexed skill entry.
type Skill = descriptor.Skill

// Detail is a Skill plus eagerly read file contents. Details are fetched per
// call and never cached.
type Detail struct {
	Skill
	Descriptor string `json:"descriptor"`
	Readme     string `json:"readme,omitempty"`
	Prompt     string `json:"prompt,omitempty"`
}

// snapshot is one loaded cache generation. A nil snapshot means "not yet
// loaded", which is distinct from a loaded-but-empty one.
type snapshot struct {
	entries  []Skill
	diags    []catalog.Diagnostic
	loadedAt time.Time
}

// Index discovers and caches skills. All methods are safe for concurrent use;
// scans run outside the cache lock, so concurrent forced loads may scan
// redundantly and the last complete snapshot wins.
type Index struct {
	paths catalog.Paths

	mu    sync.Mutex
	cache *snapshot
}

// Option configures an Index.
type Option func(*Index) error

// WithPaths overrides the scanned roots. Used by tests and by callers that
// relocate the .claude tree.
func WithPaths(paths catalog.Paths) Option {
	return func(ix *Index) error {
		ix.paths = paths
		return nil
	}
}

// NewIndex creates a skill index over the default .claude layout unless
// overridden by options.
func NewIndex(opts ...Option) (*Index, error) {
	paths, err := catalog.DefaultPaths()
	if err != nil {
		return nil, err
	}

	ix := &Index{paths: paths}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Load returns the cached entries, scanning first when the cache is empty or
// force is set. Callers must not mutate the returned slice. Load never fails:
// missing roots simply contribute nothing.
func (ix *Index) Load(ctx context.Context, force bool) []Skill {
	ix.mu.Lock()
	if ix.cache != nil && !force {
		entries := ix.cache.entries
		ix.mu.Unlock()
		return entries
	}
	ix.mu.Unlock()

	snap := ix.scan(ctx)

	ix.mu.Lock()
	ix.cache = snap
	ix.mu.Unlock()

	return snap.entries
}

// scan walks the three locations in precedence order: user, then project,
// then managed.
func (ix *Index) scan(ctx context.Context) *snapshot {
	snap := &snapshot{loadedAt: time.Now()}

	userSkills, diags := descriptor.ScanSkills(ix.paths.UserSkills, catalog.LocationUser, "")
	snap.entries = append(snap.entries, userSkills...)
	snap.diags = append(snap.diags, diags...)

	projectSkills, diags := descriptor.ScanSkills(ix.paths.ProjectSkills, catalog.LocationProject, "")
	snap.entries = append(snap.entries, projectSkills...)
	snap.diags = append(snap.diags, diags...)

	managed, diags := ix.scanManaged()
	snap.entries = append(snap.entries, managed...)
	snap.diags = append(snap.diags, diags...)

	for _, d := range snap.diags {
		logger.G(ctx).WithField("path", d.Path).Warn(d.Reason)
	}
	logger.G(ctx).WithField("count", len(snap.entries)).Debug("loaded skills")

	return snap
}

// scanManaged enumerates every marketplace under the plugins root, every
// plugin under it, and scans each plugin's skills directory with the plugin
// directory name as the source. An absent plugins root contributes nothing.
func (ix *Index) scanManaged() ([]Skill, []catalog.Diagnostic) {
	marketplaces, err := os.ReadDir(ix.paths.Marketplaces)
	if err != nil {
		return nil, nil
	}

	var skills []Skill
	var diags []catalog.Diagnostic

	for _, marketplace := range marketplaces {
		if !marketplace.IsDir() {
			continue
		}

		pluginsDir := filepath.Join(ix.paths.Marketplaces, marketplace.Name(), "plugins")
		plugins, err := os.ReadDir(pluginsDir)
		if err != nil {
			continue
		}

		for _, plugin := range plugins {
			if !plugin.IsDir() {
				continue
			}

			skillsDir := filepath.Join(pluginsDir, plugin.Name(), "skills")
			if _, err := os.Stat(skillsDir); err != nil {
				continue
			}

			found, ds := descriptor.ScanSkills(skillsDir, catalog.LocationManaged, plugin.Name())
			skills = append(skills, found...)
			diags = append(diags, ds...)
		}
	}

	return skills, diags
}

// Details returns the first entry matching name and location exactly, with the
// descriptor, README, and prompt contents attached. A miss returns (nil, nil);
// an unreadable descriptor on a hit is an error for the whole call.
func (ix *Index) Details(ctx context.Context, name string, location catalog.Location) (*Detail, error) {
	for _, skill := range ix.Load(ctx, false) {
		if skill.Name != name || skill.Location != location {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(skill.Path, descriptor.SkillFileName))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read descriptor for skill %q", name)
		}

		detail := &Detail{Skill: skill, Descriptor: string(raw)}
		detail.Readme, _ = descriptor.ReadIfExists(filepath.Join(skill.Path, descriptor.ReadmeFileName))
		detail.Prompt, _ = descriptor.ReadIfExists(filepath.Join(skill.Path, descriptor.PromptFileName))
		return detail, nil
	}
	return nil, nil
}

// Search returns entries whose name, description, or source plugin contains
// query case-insensitively. An empty query matches everything. A non-empty
// location restricts the candidates before the text match.
func (ix *Index) Search(ctx context.Context, query string, location catalog.Location) []Skill {
	var matches []Skill
	for _, skill := range ix.Load(ctx, false) {
		if location != "" && skill.Location != location {
			continue
		}
		if catalog.Matches(query, skill.Name, skill.Description, skill.SourcePlugin) {
			matches = append(matches, skill)
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
