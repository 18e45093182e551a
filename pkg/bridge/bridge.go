// Package bridge implements the request/response boundary between the
// resource indexes and an external UI surface. Requests arrive as
// line-delimited JSON envelopes on a reader; each is dispatched to the right
// index operation in its own unit of work, and exactly one response carrying
// the request's correlation token is written back. Responses are therefore
// not necessarily delivered in request order. Unknown request tags are logged
// and dropped without a response.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/hanjia/skilldex/pkg/agents"
	"github.com/hanjia/skilldex/pkg/commands"
	"github.com/hanjia/skilldex/pkg/logger"
	"github.com/hanjia/skilldex/pkg/plugins"
	"github.com/hanjia/skilldex/pkg/skills"
)

// Indexes bundles the resource indexes the router dispatches to.
type Indexes struct {
	Skills   *skills.Index
	Agents   *agents.Index
	Commands *commands.Index
	Plugins  *plugins.Index
}

// Router reads requests, dispatches them, and writes responses.
type Router struct {
	input   io.Reader
	output  io.Writer
	indexes Indexes

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// Option configures a Router.
type Option func(*Router)

// WithInput sets the request source.
func WithInput(r io.Reader) Option {
	return func(rt *Router) { rt.input = r }
}

// WithOutput sets the response sink.
func WithOutput(w io.Writer) Option {
	return func(rt *Router) { rt.output = w }
}

// WithContext sets the router context.
func WithContext(ctx context.Context) Option {
	return func(rt *Router) {
		rt.ctx, rt.cancel = context.WithCancel(ctx)
	}
}

// NewRouter creates a router over the given indexes, reading stdin and
// writing stdout unless overridden.
func NewRouter(indexes Indexes, opts ...Option) *Router {
	ctx, cancel := context.WithCancel(context.Background())

	rt := &Router{
		input:   os.Stdin,
		output:  os.Stdout,
		indexes: indexes,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run reads requests until the input is exhausted, then waits for in-flight
// handlers to finish.
func (rt *Router) Run() error {
	scanner := bufio.NewScanner(rt.input)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		select {
		case <-rt.ctx.Done():
			rt.wg.Wait()
			return rt.ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			logger.G(rt.ctx).WithError(err).Warn("dropping unparseable request")
			continue
		}

		rt.wg.Add(1)
		go func() {
			defer rt.wg.Done()
			rt.dispatch(req)
		}()
	}

	rt.wg.Wait()
	return scanner.Err()
}

// Shutdown stops the router.
func (rt *Router) Shutdown() {
	rt.cancel()
}

// Handle dispatches a single request synchronously. Exposed for callers that
// bring their own transport loop.
func (rt *Router) Handle(req Request) {
	rt.dispatch(req)
}

func (rt *Router) dispatch(req Request) {
	var err error
	switch req.Type {
	case ReqGetSkills:
		err = rt.handleGetSkills(req)
	case ReqGetSkillDetails:
		err = rt.handleSkillDetails(req)
	case ReqSearchSkills:
		err = rt.handleSearchSkills(req)
	case ReqGetCommands:
		err = rt.handleGetCommands(req)
	case ReqCommandDetails:
		err = rt.handleCommandDetails(req)
	case ReqGetAgents:
		err = rt.handleGetAgents(req)
	case ReqAgentDetails:
		err = rt.handleAgentDetails(req)
	case ReqGetPlugins:
		err = rt.handleGetPlugins(req)
	case ReqEnablePlugin:
		err = rt.handlePluginState(req, RespPluginEnabled, rt.indexes.Plugins.Enable)
	case ReqDisablePlugin:
		err = rt.handlePluginState(req, RespPluginDisabled, rt.indexes.Plugins.Disable)
	case ReqPluginStatus:
		err = rt.handlePluginStatus(req)
	default:
		logger.G(rt.ctx).WithField("type", req.Type).Warn("dropping unknown request tag")
		return
	}

	if err != nil {
		logger.G(rt.ctx).WithError(err).WithField("type", req.Type).Error("request handler failed")
		rt.sendError(req.ID, err)
	}
}

func (rt *Router) handleGetSkills(req Request) error {
	var params ListParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	entries := rt.indexes.Skills.Load(rt.ctx, params.ForceReload)
	if entries == nil {
		entries = []skills.Skill{}
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespSkillsData, "skills": entries})
}

func (rt *Router) handleSkillDetails(req Request) error {
	var params SkillDetailsParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	detail, err := rt.indexes.Skills.Details(rt.ctx, params.Name, params.Location)
	if err != nil {
		return err
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespSkillDetails, "details": detail})
}

func (rt *Router) handleSearchSkills(req Request) error {
	var params SearchParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	results := rt.indexes.Skills.Search(rt.ctx, params.Query, params.Location)
	if results == nil {
		results = []skills.Skill{}
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespSkillSearchResults, "skills": results})
}

func (rt *Router) handleGetCommands(req Request) error {
	var params ListParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	entries := rt.indexes.Commands.Load(rt.ctx, params.ForceReload)
	if entries == nil {
		entries = []commands.Command{}
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespCommandsData, "commands": entries})
}

func (rt *Router) handleCommandDetails(req Request) error {
	var params NameParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	detail, err := rt.indexes.Commands.Details(rt.ctx, params.Name)
	if err != nil {
		return err
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespCommandDetails, "details": detail})
}

func (rt *Router) handleGetAgents(req Request) error {
	var params ListParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	entries := rt.indexes.Agents.Load(rt.ctx, params.ForceReload)
	if entries == nil {
		entries = []agents.Agent{}
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespAgentsData, "agents": entries})
}

func (rt *Router) handleAgentDetails(req Request) error {
	var params NameParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	detail, err := rt.indexes.Agents.Details(rt.ctx, params.Name)
	if err != nil {
		return err
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespAgentDetails, "details": detail})
}

func (rt *Router) handleGetPlugins(req Request) error {
	var params ListParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	entries := rt.indexes.Plugins.Load(rt.ctx, params.ForceReload)
	if entries == nil {
		entries = []plugins.Plugin{}
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespPluginsData, "plugins": entries})
}

// handlePluginState serves enable-plugin and disable-plugin. A registry
// failure is reported through the success flag rather than an error response.
func (rt *Router) handlePluginState(req Request, respType string, op func(context.Context, string) error) error {
	var params PluginParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	success := true
	if err := op(rt.ctx, params.PluginID); err != nil {
		logger.G(rt.ctx).WithError(err).WithField("plugin", params.PluginID).Error("plugin state change failed")
		success = false
	}
	return rt.send(map[string]any{"id": req.ID, "type": respType, "pluginId": params.PluginID, "success": success})
}

func (rt *Router) handlePluginStatus(req Request) error {
	var params PluginParams
	if err := decodeParams(req, &params); err != nil {
		return err
	}

	enabled, err := rt.indexes.Plugins.Status(rt.ctx, params.PluginID)
	if err != nil {
		return err
	}
	return rt.send(map[string]any{"id": req.ID, "type": RespPluginStatus, "pluginId": params.PluginID, "enabled": enabled})
}

func decodeParams(req Request, v any) error {
	if len(req.Params) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(req.Params, v), "invalid params for %s", req.Type)
}

func (rt *Router) sendError(id string, err error) {
	if sendErr := rt.send(map[string]any{"id": id, "type": RespError, "message": err.Error()}); sendErr != nil {
		logger.G(rt.ctx).WithError(sendErr).Error("failed to send error response")
	}
}

func (rt *Router) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal response")
	}

	rt.writeMu.Lock()
	defer rt.writeMu.Unlock()
	_, err = rt.output.Write(append(data, '\n'))
	return err
}
