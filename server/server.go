//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the platform over HTTP: workflow CRUD, the
// execution submission API, and the status/cancel control surface.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/chavannishanthrao/AIFlowForge/agent"
	"github.com/chavannishanthrao/AIFlowForge/connector"
	"github.com/chavannishanthrao/AIFlowForge/engine"
	"github.com/chavannishanthrao/AIFlowForge/execution"
	"github.com/chavannishanthrao/AIFlowForge/log"
	"github.com/chavannishanthrao/AIFlowForge/skill"
	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

// Server routes platform requests to the engine and the record
// registries.
type Server struct {
	router     *mux.Router
	engine     *engine.Engine
	workflows  *workflow.Registry
	skills     *skill.Registry
	agents     *agent.Registry
	connectors *connector.Registry
	connSvc    connector.Service
}

// Option configures the Server instance.
type Option func(*Server)

// WithSkillRegistry sets the skill registry.
func WithSkillRegistry(r *skill.Registry) Option {
	return func(s *Server) { s.skills = r }
}

// WithAgentRegistry sets the agent registry.
func WithAgentRegistry(r *agent.Registry) Option {
	return func(s *Server) { s.agents = r }
}

// WithConnectorRegistry sets the connector registry and service.
func WithConnectorRegistry(r *connector.Registry, svc connector.Service) Option {
	return func(s *Server) {
		s.connectors = r
		s.connSvc = svc
	}
}

// New creates the HTTP server over the given engine and workflow
// registry. The behaviour can be tweaked via functional options.
func New(eng *engine.Engine, workflows *workflow.Registry, opts ...Option) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		engine:     eng,
		workflows:  workflows,
		skills:     skill.NewRegistry(),
		agents:     agent.NewRegistry(),
		connectors: connector.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.connSvc == nil {
		s.connSvc = connector.NewManager(s.connectors)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Workflow APIs.
	s.router.HandleFunc("/api/workflows", s.handleCreateWorkflow).Methods(http.MethodPost)
	s.router.HandleFunc("/api/workflows", s.handleListWorkflows).Methods(http.MethodGet)
	s.router.HandleFunc("/api/workflows/{workflowId}", s.handleGetWorkflow).Methods(http.MethodGet)
	s.router.HandleFunc("/api/workflows/{workflowId}", s.handleUpdateWorkflow).Methods(http.MethodPut)
	s.router.HandleFunc("/api/workflows/{workflowId}", s.handleDeleteWorkflow).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/workflows/{workflowId}/execute", s.handleExecuteWorkflow).Methods(http.MethodPost)

	// Execution APIs.
	s.router.HandleFunc("/api/executions", s.handleListExecutions).Methods(http.MethodGet)
	s.router.HandleFunc("/api/executions/{executionId}", s.handleGetExecution).Methods(http.MethodGet)
	s.router.HandleFunc("/api/executions/{executionId}/cancel", s.handleCancelExecution).Methods(http.MethodPost)

	// Record APIs.
	s.router.HandleFunc("/api/skills", s.handleCreateSkill).Methods(http.MethodPost)
	s.router.HandleFunc("/api/skills", s.handleListSkills).Methods(http.MethodGet)
	s.router.HandleFunc("/api/skills/{skillId}", s.handleGetSkill).Methods(http.MethodGet)
	s.router.HandleFunc("/api/skills/{skillId}", s.handleDeleteSkill).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/agents", s.handleCreateAgent).Methods(http.MethodPost)
	s.router.HandleFunc("/api/agents", s.handleListAgents).Methods(http.MethodGet)
	s.router.HandleFunc("/api/agents/{agentId}", s.handleGetAgent).Methods(http.MethodGet)
	s.router.HandleFunc("/api/agents/{agentId}", s.handleDeleteAgent).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/connectors", s.handleCreateConnector).Methods(http.MethodPost)
	s.router.HandleFunc("/api/connectors", s.handleListConnectors).Methods(http.MethodGet)
	s.router.HandleFunc("/api/connectors/{connectorId}", s.handleGetConnector).Methods(http.MethodGet)
	s.router.HandleFunc("/api/connectors/{connectorId}", s.handleDeleteConnector).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/connectors/{connectorId}/test", s.handleTestConnector).Methods(http.MethodPost)
}

// ---- Workflow handlers --------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf workflow.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if wf.Name == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	if _, err := workflow.Validate(wf.Definition); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.workflows.Create(wf))
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.workflows.List())
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.workflows.Get(mux.Vars(r)["workflowId"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	var update workflow.Workflow
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if update.Definition.Nodes != nil {
		if _, err := workflow.Validate(update.Definition); err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
	}
	wf, err := s.workflows.Update(mux.Vars(r)["workflowId"], update)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wf)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := s.workflows.Delete(mux.Vars(r)["workflowId"]); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type executeRequest struct {
	Input map[string]any `json:"input"`
}

func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.workflows.Get(mux.Vars(r)["workflowId"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	var req executeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	exec, err := s.engine.Submit(r.Context(), wf, req.Input)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrInvalidDefinition):
			s.writeError(w, http.StatusUnprocessableEntity, err)
		case errors.Is(err, engine.ErrCapacity):
			s.writeError(w, http.StatusTooManyRequests, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"execution_id": exec.ID,
		"status":       exec.Status,
		"message":      "workflow execution started",
	})
}

// ---- Execution handlers -------------------------------------------------

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}
	workflowID := r.URL.Query().Get("workflow_id")
	s.writeJSON(w, http.StatusOK, s.engine.List(workflowID, limit))
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	exec, err := s.engine.Status(mux.Vars(r)["executionId"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exec)
}

func (s *Server) handleCancelExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["executionId"]
	if err := s.engine.Cancel(id); err != nil {
		switch {
		case errors.Is(err, execution.ErrNotFound):
			s.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, execution.ErrInvalidStateTransition):
			s.writeError(w, http.StatusConflict, err)
		default:
			s.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	exec, err := s.engine.Status(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exec)
}

// ---- Record handlers ----------------------------------------------------

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var sk skill.Skill
	if err := json.NewDecoder(r.Body).Decode(&sk); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if sk.Name == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	s.writeJSON(w, http.StatusCreated, s.skills.Create(sk))
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.skills.List())
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	sk, err := s.skills.Get(mux.Vars(r)["skillId"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sk)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	if err := s.skills.Delete(mux.Vars(r)["skillId"]); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var a agent.Agent
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if a.Name == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	s.writeJSON(w, http.StatusCreated, s.agents.Create(a))
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.agents.List())
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := s.agents.Get(mux.Vars(r)["agentId"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	if err := s.agents.Delete(mux.Vars(r)["agentId"]); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateConnector(w http.ResponseWriter, r *http.Request) {
	var c connector.Connector
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if c.Name == "" || c.Type == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("name and type are required"))
		return
	}
	s.writeJSON(w, http.StatusCreated, s.connectors.Create(c))
}

func (s *Server) handleListConnectors(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.connectors.List())
}

func (s *Server) handleGetConnector(w http.ResponseWriter, r *http.Request) {
	c, err := s.connectors.Get(mux.Vars(r)["connectorId"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteConnector(w http.ResponseWriter, r *http.Request) {
	if err := s.connectors.Delete(mux.Vars(r)["connectorId"]); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTestConnector(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["connectorId"]
	ok, err := s.connSvc.TestConnection(r.Context(), id)
	if err != nil {
		if errors.Is(err, connector.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"connector_id": id, "healthy": ok})
}

// ---- Helpers ------------------------------------------------------------

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}
