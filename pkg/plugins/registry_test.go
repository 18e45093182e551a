package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, marketplaces string) *SQLiteRegistry {
	t.Helper()
	registry, err := NewSQLiteRegistry(context.Background(), filepath.Join(t.TempDir(), "state.db"), marketplaces)
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })
	return registry
}

func installPlugin(t *testing.T, marketplaces, marketplace, name, descriptorJSON string) {
	t.Helper()
	dir := filepath.Join(marketplaces, marketplace, "plugins", name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if descriptorJSON != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, pluginDescriptorName), []byte(descriptorJSON), 0o644))
	}
}

func TestListInstalled(t *testing.T) {
	marketplaces := t.TempDir()
	installPlugin(t, marketplaces, "central", "git-helper", `{"description":"git workflows"}`)
	installPlugin(t, marketplaces, "central", "no-descriptor", "")
	installPlugin(t, marketplaces, "extra", "notes", `{broken`)

	registry := newTestRegistry(t, marketplaces)
	plugins, err := registry.ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, plugins, 3)

	byID := map[string]Plugin{}
	for _, p := range plugins {
		byID[p.ID] = p
	}

	gitHelper := byID["central/git-helper"]
	assert.Equal(t, "git-helper", gitHelper.Name)
	assert.Equal(t, "central", gitHelper.Marketplace)
	assert.Equal(t, "git workflows", gitHelper.Description)
	assert.True(t, gitHelper.Enabled, "plugins are enabled until disabled")

	assert.Empty(t, byID["central/no-descriptor"].Description)
	assert.Empty(t, byID["extra/notes"].Description, "malformed plugin.json degrades to no description")
}

func TestListInstalledAbsentRoot(t *testing.T) {
	registry := newTestRegistry(t, filepath.Join(t.TempDir(), "missing"))
	plugins, err := registry.ListInstalled(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plugins)
}

func TestEnableDisablePersists(t *testing.T) {
	marketplaces := t.TempDir()
	installPlugin(t, marketplaces, "central", "git-helper", "")

	registry := newTestRegistry(t, marketplaces)
	ctx := context.Background()

	enabled, err := registry.IsEnabled(ctx, "central/git-helper")
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, registry.Disable(ctx, "central/git-helper"))
	enabled, err = registry.IsEnabled(ctx, "central/git-helper")
	require.NoError(t, err)
	assert.False(t, enabled)

	plugins, err := registry.ListInstalled(ctx)
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.False(t, plugins[0].Enabled)

	require.NoError(t, registry.Enable(ctx, "central/git-helper"))
	enabled, err = registry.IsEnabled(ctx, "central/git-helper")
	require.NoError(t, err)
	assert.True(t, enabled)
}
