package plugins

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	plugins   []Plugin
	listErr   error
	listCalls int
	enabled   map[string]bool
}

func newFakeRegistry(plugins ...Plugin) *fakeRegistry {
	return &fakeRegistry{plugins: plugins, enabled: map[string]bool{}}
}

func (f *fakeRegistry) ListInstalled(context.Context) ([]Plugin, error) {
	f.listCalls++
	return f.plugins, f.listErr
}

func (f *fakeRegistry) Enable(_ context.Context, id string) error {
	f.enabled[id] = true
	return nil
}

func (f *fakeRegistry) Disable(_ context.Context, id string) error {
	f.enabled[id] = false
	return nil
}

func (f *fakeRegistry) IsEnabled(_ context.Context, id string) (bool, error) {
	enabled, ok := f.enabled[id]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

func TestIndexLoadCaches(t *testing.T) {
	registry := newFakeRegistry(
		Plugin{ID: "central/git-helper", Name: "git-helper", Marketplace: "central", Enabled: true},
	)
	ix := NewIndex(registry)
	ctx := context.Background()

	first := ix.Load(ctx, false)
	require.Len(t, first, 1)
	assert.Equal(t, 1, registry.listCalls)

	ix.Load(ctx, false)
	assert.Equal(t, 1, registry.listCalls, "cached load does not hit the registry")

	ix.Load(ctx, true)
	assert.Equal(t, 2, registry.listCalls)

	ix.ClearCache()
	ix.Load(ctx, false)
	assert.Equal(t, 3, registry.listCalls, "cleared cache behaves as unloaded")
}

func TestIndexLoadRegistryFailure(t *testing.T) {
	registry := newFakeRegistry()
	registry.listErr = errors.New("registry offline")
	ix := NewIndex(registry)

	entries := ix.Load(context.Background(), true)
	assert.Empty(t, entries)
	assert.False(t, ix.LoadedAt().IsZero(), "a failed load still counts as loaded-empty")
}

func TestIndexSearch(t *testing.T) {
	registry := newFakeRegistry(
		Plugin{ID: "central/git-helper", Name: "git-helper", Marketplace: "central", Description: "git workflows"},
		Plugin{ID: "extra/notes", Name: "notes", Marketplace: "extra"},
	)
	ix := NewIndex(registry)
	ctx := context.Background()

	assert.Len(t, ix.Search(ctx, ""), 2)

	results := ix.Search(ctx, "GIT")
	require.Len(t, results, 1)
	assert.Equal(t, "git-helper", results[0].Name)

	results = ix.Search(ctx, "extra")
	require.Len(t, results, 1)
	assert.Equal(t, "notes", results[0].Name, "marketplace is searchable")
}

func TestIndexPassThrough(t *testing.T) {
	registry := newFakeRegistry()
	ix := NewIndex(registry)
	ctx := context.Background()

	require.NoError(t, ix.Disable(ctx, "m/p"))
	enabled, err := ix.Status(ctx, "m/p")
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, ix.Enable(ctx, "m/p"))
	enabled, err = ix.Status(ctx, "m/p")
	require.NoError(t, err)
	assert.True(t, enabled)
}
