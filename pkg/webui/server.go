// Package webui provides the HTTP/JSON API the browser UI talks to. It is a
// second transport over the same resource indexes the stdio bridge serves.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/hanjia/skilldex/pkg/agents"
	"github.com/hanjia/skilldex/pkg/catalog"
	"github.com/hanjia/skilldex/pkg/commands"
	"github.com/hanjia/skilldex/pkg/logger"
	"github.com/hanjia/skilldex/pkg/plugins"
	"github.com/hanjia/skilldex/pkg/skills"
	"github.com/hanjia/skilldex/pkg/version"
)

// Config holds the server configuration.
type Config struct {
	Host string
	Port int
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server serves the resource indexes over HTTP.
type Server struct {
	router   *mux.Router
	config   *Config
	server   *http.Server
	skills   *skills.Index
	agents   *agents.Index
	commands *commands.Index
	plugins  *plugins.Index
}

// NewServer creates a web server over the given indexes.
func NewServer(config *Config, skillIndex *skills.Index, agentIndex *agents.Index, commandIndex *commands.Index, pluginIndex *plugins.Index) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router:   mux.NewRouter(),
		config:   config,
		skills:   skillIndex,
		agents:   agentIndex,
		commands: commandIndex,
		plugins:  pluginIndex,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/skills/search", s.handleSearchSkills).Methods("GET")
	api.HandleFunc("/skills/{name}", s.handleSkillDetails).Methods("GET")

	api.HandleFunc("/agents", s.handleListAgents).Methods("GET")
	api.HandleFunc("/agents/{name}", s.handleAgentDetails).Methods("GET")

	api.HandleFunc("/commands", s.handleListCommands).Methods("GET")
	api.HandleFunc("/commands/{name}", s.handleCommandDetails).Methods("GET")

	api.HandleFunc("/plugins", s.handleListPlugins).Methods("GET")
	api.HandleFunc("/plugins/{marketplace}/{name}/enable", s.handleEnablePlugin).Methods("POST")
	api.HandleFunc("/plugins/{marketplace}/{name}/disable", s.handleDisablePlugin).Methods("POST")
	api.HandleFunc("/plugins/{marketplace}/{name}/status", s.handlePluginStatus).Methods("GET")

	api.HandleFunc("/cache", s.handleClearCache).Methods("DELETE")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]any{"status": "ok", "version": version.Version})
}

func forceReload(r *http.Request) bool {
	return r.URL.Query().Get("reload") == "true"
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	entries := s.skills.Load(r.Context(), forceReload(r))
	if entries == nil {
		entries = []skills.Skill{}
	}
	s.writeJSON(w, map[string]any{"skills": entries})
}

func (s *Server) handleSearchSkills(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	location := catalog.Location(r.URL.Query().Get("location"))

	results := s.skills.Search(r.Context(), query, location)
	if results == nil {
		results = []skills.Skill{}
	}
	s.writeJSON(w, map[string]any{"skills": results})
}

func (s *Server) handleSkillDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	location := catalog.Location(r.URL.Query().Get("location"))
	if location == "" {
		location = catalog.LocationUser
	}

	detail, err := s.skills.Details(r.Context(), name, location)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load skill details", err)
		return
	}
	if detail == nil {
		s.writeError(w, http.StatusNotFound, "skill not found", nil)
		return
	}
	s.writeJSON(w, detail)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	entries := s.agents.Load(r.Context(), forceReload(r))
	if entries == nil {
		entries = []agents.Agent{}
	}
	s.writeJSON(w, map[string]any{"agents": entries})
}

func (s *Server) handleAgentDetails(w http.ResponseWriter, r *http.Request) {
	detail, err := s.agents.Details(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load agent details", err)
		return
	}
	if detail == nil {
		s.writeError(w, http.StatusNotFound, "agent not found", nil)
		return
	}
	s.writeJSON(w, detail)
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	entries := s.commands.Load(r.Context(), forceReload(r))
	if entries == nil {
		entries = []commands.Command{}
	}
	s.writeJSON(w, map[string]any{"commands": entries})
}

func (s *Server) handleCommandDetails(w http.ResponseWriter, r *http.Request) {
	detail, err := s.commands.Details(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load command details", err)
		return
	}
	if detail == nil {
		s.writeError(w, http.StatusNotFound, "command not found", nil)
		return
	}
	s.writeJSON(w, detail)
}

func (s *Server) handleListPlugins(w http.ResponseWriter, r *http.Request) {
	entries := s.plugins.Load(r.Context(), forceReload(r))
	if entries == nil {
		entries = []plugins.Plugin{}
	}
	s.writeJSON(w, map[string]any{"plugins": entries})
}

func pluginID(r *http.Request) string {
	vars := mux.Vars(r)
	return vars["marketplace"] + "/" + vars["name"]
}

func (s *Server) handleEnablePlugin(w http.ResponseWriter, r *http.Request) {
	id := pluginID(r)
	if err := s.plugins.Enable(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to enable plugin", err)
		return
	}
	s.writeJSON(w, map[string]any{"id": id, "success": true})
}

func (s *Server) handleDisablePlugin(w http.ResponseWriter, r *http.Request) {
	id := pluginID(r)
	if err := s.plugins.Disable(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to disable plugin", err)
		return
	}
	s.writeJSON(w, map[string]any{"id": id, "success": true})
}

func (s *Server) handlePluginStatus(w http.ResponseWriter, r *http.Request) {
	id := pluginID(r)
	enabled, err := s.plugins.Status(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to query plugin status", err)
		return
	}
	s.writeJSON(w, map[string]any{"id": id, "enabled": enabled})
}

func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	s.skills.ClearCache()
	s.agents.ClearCache()
	s.commands.ClearCache()
	s.plugins.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rw.statusCode,
			"duration": time.Since(start),
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]any{"error": message, "status": statusCode}); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{Addr: address, Handler: s.router}

	logger.G(ctx).WithField("address", address).Info("starting web server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("web server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Stop closes the server immediately.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
