package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsUnder(t *testing.T) {
	paths := PathsUnder("/home/alice", "/work/repo")

	assert.Equal(t, filepath.Join("/home/alice", ".claude", "skills"), paths.UserSkills)
	assert.Equal(t, filepath.Join("/work/repo", ".claude", "skills"), paths.ProjectSkills)
	assert.Equal(t, filepath.Join("/home/alice", ".claude", "plugins", "marketplaces"), paths.Marketplaces)
	assert.Equal(t, filepath.Join("/home/alice", ".claude", "agents"), paths.Agents)
	assert.Equal(t, filepath.Join("/home/alice", ".claude", "commands"), paths.Commands)
}

func TestDefaultPaths(t *testing.T) {
	paths, err := DefaultPaths()
	require.NoError(t, err)
	assert.Contains(t, paths.UserSkills, ".claude")
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		fields []string
		want   bool
	}{
		{"empty query matches everything", "", []string{""}, true},
		{"exact substring", "foo", []string{"my-foo-skill"}, true},
		{"case insensitive query", "FOO", []string{"my-foo-skill"}, true},
		{"case insensitive field", "foo", []string{"MY-FOO-SKILL"}, true},
		{"matches any field", "bar", []string{"nope", "has bar inside"}, true},
		{"no match", "zap", []string{"foo", "bar"}, false},
		{"empty fields never match non-empty query", "x", []string{"", ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.query, tt.fields...))
		})
	}
}
