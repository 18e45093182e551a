package bridge

import (
	"encoding/json"

	"github.com/hanjia/skilldex/pkg/catalog"
)

// Request is the inbound envelope: a free-form correlation token, a request
// tag, and tag-specific params.
type Request struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Request tags.
const (
	ReqGetSkills       = "get-skills"
	ReqGetSkillDetails = "get-skill-details"
	ReqSearchSkills    = "search-skills"
	ReqGetCommands     = "get-commands"
	ReqCommandDetails  = "get-command-details"
	ReqGetAgents       = "get-agents"
	ReqAgentDetails    = "get-agent-details"
	ReqGetPlugins      = "get-plugins"
	ReqEnablePlugin    = "enable-plugin"
	ReqDisablePlugin   = "disable-plugin"
	ReqPluginStatus    = "get-plugin-status"
)

// Response tags.
const (
	RespSkillsData         = "skills-data"
	RespSkillDetails       = "skill-details"
	RespSkillSearchResults = "skills-search-results"
	RespCommandsData       = "commands-data"
	RespCommandDetails     = "command-details"
	RespAgentsData         = "agents-data"
	RespAgentDetails       = "agent-details"
	RespPluginsData        = "plugins-data"
	RespPluginEnabled      = "plugin-enabled"
	RespPluginDisabled     = "plugin-disabled"
	RespPluginStatus       = "plugin-status"
	RespError              = "error"
)

// ListParams accompanies the list request tags.
type ListParams struct {
	ForceReload bool `json:"forceReload,omitempty"`
}

// SkillDetailsParams accompanies get-skill-details.
type SkillDetailsParams struct {
	Name     string           `json:"name"`
	Location catalog.Location `json:"location"`
}

// SearchParams accompanies search-skills.
type SearchParams struct {
	Query    string           `json:"query"`
	Location catalog.Location `json:"location,omitempty"`
}

// NameParams accompanies the agent/command detail tags.
type NameParams struct {
	Name string `json:"name"`
}

// PluginParams accompanies the plugin state tags.
type PluginParams struct {
	PluginID string `json:"pluginId"`
}
