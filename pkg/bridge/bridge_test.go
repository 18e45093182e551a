package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanjia/skilldex/pkg/agents"
	"github.com/hanjia/skilldex/pkg/catalog"
	"github.com/hanjia/skilldex/pkg/commands"
	"github.com/hanjia/skilldex/pkg/descriptor"
	"github.com/hanjia/skilldex/pkg/plugins"
	"github.com/hanjia/skilldex/pkg/skills"
)

type stubRegistry struct {
	plugins  []plugins.Plugin
	disabled map[string]bool
	fail     bool
}

func (s *stubRegistry) ListInstalled(context.Context) ([]plugins.Plugin, error) {
	return s.plugins, nil
}

func (s *stubRegistry) Enable(_ context.Context, id string) error {
	if s.fail {
		return errors.New("registry write failed")
	}
	delete(s.disabled, id)
	return nil
}

func (s *stubRegistry) Disable(_ context.Context, id string) error {
	if s.fail {
		return errors.New("registry write failed")
	}
	s.disabled[id] = true
	return nil
}

func (s *stubRegistry) IsEnabled(_ context.Context, id string) (bool, error) {
	return !s.disabled[id], nil
}

type fixture struct {
	paths    catalog.Paths
	indexes  Indexes
	registry *stubRegistry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	paths := catalog.PathsUnder(t.TempDir(), t.TempDir())

	skillIndex, err := skills.NewIndex(skills.WithPaths(paths))
	require.NoError(t, err)
	agentIndex, err := agents.NewIndex(agents.WithRoot(paths.Agents))
	require.NoError(t, err)
	commandIndex, err := commands.NewIndex(commands.WithRoot(paths.Commands))
	require.NoError(t, err)

	registry := &stubRegistry{disabled: map[string]bool{}}

	return &fixture{
		paths:    paths,
		registry: registry,
		indexes: Indexes{
			Skills:   skillIndex,
			Agents:   agentIndex,
			Commands: commandIndex,
			Plugins:  plugins.NewIndex(registry),
		},
	}
}

func (f *fixture) writeSkill(t *testing.T, name, descriptorJSON string) string {
	t.Helper()
	dir := filepath.Join(f.paths.UserSkills, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, descriptor.SkillFileName), []byte(descriptorJSON), 0o644))
	return dir
}

// run feeds the requests through a router and returns every response decoded,
// in output order.
func run(t *testing.T, f *fixture, requests ...map[string]any) []map[string]any {
	t.Helper()

	input := bytes.NewBuffer(nil)
	for _, req := range requests {
		data, err := json.Marshal(req)
		require.NoError(t, err)
		input.Write(append(data, '\n'))
	}

	output := bytes.NewBuffer(nil)
	router := NewRouter(f.indexes, WithInput(input), WithOutput(output), WithContext(context.Background()))
	require.NoError(t, router.Run())

	var responses []map[string]any
	scanner := bufio.NewScanner(output)
	for scanner.Scan() {
		var resp map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func responseFor(t *testing.T, responses []map[string]any, id string) map[string]any {
	t.Helper()
	for _, resp := range responses {
		if resp["id"] == id {
			return resp
		}
	}
	t.Fatalf("no response for correlation id %q", id)
	return nil
}

func TestGetSkills(t *testing.T) {
	f := newFixture(t)
	f.writeSkill(t, "foo", `{"description":"does foo"}`)

	responses := run(t, f, map[string]any{"id": "r1", "type": ReqGetSkills})
	require.Len(t, responses, 1)

	resp := responseFor(t, responses, "r1")
	assert.Equal(t, RespSkillsData, resp["type"])

	entries := resp["skills"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "foo", entry["name"])
	assert.Equal(t, "user", entry["location"])
	assert.Equal(t, "does foo", entry["description"])
}

func TestGetSkillsEmptyIsArray(t *testing.T) {
	f := newFixture(t)
	responses := run(t, f, map[string]any{"id": "r1", "type": ReqGetSkills})
	resp := responseFor(t, responses, "r1")
	entries, ok := resp["skills"].([]any)
	require.True(t, ok, "empty result is an array, not null")
	assert.Empty(t, entries)
}

func TestSkillDetails(t *testing.T) {
	f := newFixture(t)
	f.writeSkill(t, "foo", `{"description":"does foo"}`)

	t.Run("hit", func(t *testing.T) {
		responses := run(t, f, map[string]any{
			"id": "d1", "type": ReqGetSkillDetails,
			"params": map[string]any{"name": "foo", "location": "user"},
		})
		resp := responseFor(t, responses, "d1")
		assert.Equal(t, RespSkillDetails, resp["type"])
		details := resp["details"].(map[string]any)
		assert.Equal(t, "foo", details["name"])
		assert.Equal(t, `{"description":"does foo"}`, details["descriptor"])
	})

	t.Run("miss is null, not an error", func(t *testing.T) {
		responses := run(t, f, map[string]any{
			"id": "d2", "type": ReqGetSkillDetails,
			"params": map[string]any{"name": "ghost", "location": "user"},
		})
		resp := responseFor(t, responses, "d2")
		assert.Equal(t, RespSkillDetails, resp["type"])
		assert.Nil(t, resp["details"])
	})
}

func TestSkillDetailsReadFailureIsErrorResponse(t *testing.T) {
	f := newFixture(t)
	dir := f.writeSkill(t, "foo", `{}`)

	// populate the cache, then pull the descriptor out from under it
	f.indexes.Skills.Load(context.Background(), true)
	require.NoError(t, os.Remove(filepath.Join(dir, descriptor.SkillFileName)))

	responses := run(t, f, map[string]any{
		"id": "d1", "type": ReqGetSkillDetails,
		"params": map[string]any{"name": "foo", "location": "user"},
	})
	resp := responseFor(t, responses, "d1")
	assert.Equal(t, RespError, resp["type"])
	assert.NotEmpty(t, resp["message"])
}

func TestSearchSkills(t *testing.T) {
	f := newFixture(t)
	f.writeSkill(t, "formatter", `{"description":"formats code"}`)
	f.writeSkill(t, "linter", `{}`)

	responses := run(t, f, map[string]any{
		"id": "s1", "type": ReqSearchSkills,
		"params": map[string]any{"query": "FORMAT"},
	})
	resp := responseFor(t, responses, "s1")
	assert.Equal(t, RespSkillSearchResults, resp["type"])
	results := resp["skills"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "formatter", results[0].(map[string]any)["name"])
}

func TestAgentsAndCommands(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.paths.Agents, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.paths.Agents, "reviewer.md"), []byte("# Reviews code"), 0o644))
	require.NoError(t, os.MkdirAll(f.paths.Commands, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.paths.Commands, "deploy.md"), []byte("---\ndescription: ships it\n---\n"), 0o644))

	responses := run(t, f,
		map[string]any{"id": "a1", "type": ReqGetAgents},
		map[string]any{"id": "c1", "type": ReqGetCommands},
		map[string]any{"id": "a2", "type": ReqAgentDetails, "params": map[string]any{"name": "reviewer"}},
		map[string]any{"id": "c2", "type": ReqCommandDetails, "params": map[string]any{"name": "nope"}},
	)
	require.Len(t, responses, 4)

	agentsResp := responseFor(t, responses, "a1")
	assert.Equal(t, RespAgentsData, agentsResp["type"])
	require.Len(t, agentsResp["agents"].([]any), 1)

	commandsResp := responseFor(t, responses, "c1")
	assert.Equal(t, RespCommandsData, commandsResp["type"])
	commandList := commandsResp["commands"].([]any)
	require.Len(t, commandList, 1)
	assert.Equal(t, "ships it", commandList[0].(map[string]any)["description"])

	agentDetail := responseFor(t, responses, "a2")
	assert.Equal(t, RespAgentDetails, agentDetail["type"])
	assert.Equal(t, "# Reviews code", agentDetail["details"].(map[string]any)["content"])

	commandDetail := responseFor(t, responses, "c2")
	assert.Equal(t, RespCommandDetails, commandDetail["type"])
	assert.Nil(t, commandDetail["details"])
}

func TestPluginRequests(t *testing.T) {
	f := newFixture(t)
	f.registry.plugins = []plugins.Plugin{
		{ID: "central/git-helper", Name: "git-helper", Marketplace: "central", Enabled: true},
	}

	responses := run(t, f, map[string]any{"id": "p1", "type": ReqGetPlugins})
	resp := responseFor(t, responses, "p1")
	assert.Equal(t, RespPluginsData, resp["type"])
	list := resp["plugins"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0].(map[string]any)["enabled"])

	responses = run(t, f, map[string]any{
		"id": "p2", "type": ReqDisablePlugin,
		"params": map[string]any{"pluginId": "central/git-helper"},
	})
	resp = responseFor(t, responses, "p2")
	assert.Equal(t, RespPluginDisabled, resp["type"])
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "central/git-helper", resp["pluginId"])

	responses = run(t, f, map[string]any{
		"id": "p3", "type": ReqPluginStatus,
		"params": map[string]any{"pluginId": "central/git-helper"},
	})
	resp = responseFor(t, responses, "p3")
	assert.Equal(t, RespPluginStatus, resp["type"])
	assert.Equal(t, false, resp["enabled"])

	responses = run(t, f, map[string]any{
		"id": "p4", "type": ReqEnablePlugin,
		"params": map[string]any{"pluginId": "central/git-helper"},
	})
	resp = responseFor(t, responses, "p4")
	assert.Equal(t, RespPluginEnabled, resp["type"])
	assert.Equal(t, true, resp["success"])
}

func TestPluginStateFailureReportsSuccessFalse(t *testing.T) {
	f := newFixture(t)
	f.registry.fail = true

	responses := run(t, f, map[string]any{
		"id": "p1", "type": ReqEnablePlugin,
		"params": map[string]any{"pluginId": "m/p"},
	})
	resp := responseFor(t, responses, "p1")
	assert.Equal(t, RespPluginEnabled, resp["type"])
	assert.Equal(t, false, resp["success"])
}

func TestUnknownTagIsDropped(t *testing.T) {
	f := newFixture(t)
	f.writeSkill(t, "foo", `{}`)

	responses := run(t, f,
		map[string]any{"id": "u1", "type": "get-widgets"},
		map[string]any{"id": "r1", "type": ReqGetSkills},
	)

	// exactly one response, and nothing carries the unknown request's token
	require.Len(t, responses, 1)
	assert.Equal(t, "r1", responses[0]["id"])
}

func TestMalformedLineDoesNotStopTheLoop(t *testing.T) {
	f := newFixture(t)

	input := bytes.NewBufferString("{not json\n" + `{"id":"r1","type":"get-skills"}` + "\n")
	output := bytes.NewBuffer(nil)
	router := NewRouter(f.indexes, WithInput(input), WithOutput(output), WithContext(context.Background()))
	require.NoError(t, router.Run())

	scanner := bufio.NewScanner(output)
	require.True(t, scanner.Scan())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
	assert.Equal(t, "r1", resp["id"])
	assert.Equal(t, RespSkillsData, resp["type"])
}

func TestForceReloadParam(t *testing.T) {
	f := newFixture(t)
	f.indexes.Skills.Load(context.Background(), true) // cache empty state

	f.writeSkill(t, "late", `{}`)

	responses := run(t, f, map[string]any{"id": "r1", "type": ReqGetSkills})
	assert.Empty(t, responseFor(t, responses, "r1")["skills"].([]any), "cached view")

	responses = run(t, f, map[string]any{
		"id": "r2", "type": ReqGetSkills,
		"params": map[string]any{"forceReload": true},
	})
	assert.Len(t, responseFor(t, responses, "r2")["skills"].([]any), 1)
}
