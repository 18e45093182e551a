// Package catalog defines the shared vocabulary of the resource indexes:
// discovery locations, structured scan diagnostics, and the default layout of
// the .claude directory tree the indexes read from.
package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Location tags where a resource was discovered. Skills carry one of the three
// values below; agents and commands are always user-owned.
type Location string

// Discovery locations in precedence order.
const (
	LocationUser    Location = "user"
	LocationProject Location = "project"
	LocationManaged Location = "managed"
)

const claudeDir = ".claude"

// Paths holds the resolved roots the indexes scan. All paths may point at
// directories that do not exist; scans treat an absent root as empty.
type Paths struct {
	UserSkills    string // <home>/.claude/skills
	ProjectSkills string // <project>/.claude/skills
	Marketplaces  string // <home>/.claude/plugins/marketplaces
	Agents        string // <home>/.claude/agents
	Commands      string // <home>/.claude/commands
}

// DefaultPaths resolves the conventional layout under the user's home
// directory and the current working directory.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, errors.Wrap(err, "failed to get user home directory")
	}
	return PathsUnder(home, "."), nil
}

// PathsUnder builds the conventional layout rooted at explicit home and
// project directories. Used by tests and by commands that override the roots.
func PathsUnder(home, project string) Paths {
	return Paths{
		UserSkills:    filepath.Join(home, claudeDir, "skills"),
		ProjectSkills: filepath.Join(project, claudeDir, "skills"),
		Marketplaces:  filepath.Join(home, claudeDir, "plugins", "marketplaces"),
		Agents:        filepath.Join(home, claudeDir, "agents"),
		Commands:      filepath.Join(home, claudeDir, "commands"),
	}
}

// Diagnostic records one entry skipped during a scan, with the path that was
// rejected and the reason. Scans return diagnostics alongside the entries they
// did produce; a diagnostic never aborts a scan.
type Diagnostic struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Matches reports whether any of the fields contains query as a
// case-insensitive substring. An empty query matches everything.
func Matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
