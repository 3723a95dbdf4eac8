//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package agent provides agent records and the LLM-backed service the
// workflow engine's agent executor delegates to.
package agent

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryPolicy controls how much conversation state an agent retains.
type MemoryPolicy string

// Memory policies.
const (
	MemorySession    MemoryPolicy = "session"
	MemoryPersistent MemoryPolicy = "persistent"
	MemoryNone       MemoryPolicy = "none"
)

// ErrNotFound reports an unknown agent id.
var ErrNotFound = errors.New("agent not found")

// Agent is a configured assistant composed from skills and prompt
// settings.
type Agent struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	SkillIDs       []string       `json:"skill_ids,omitempty"`
	PromptSettings map[string]any `json:"prompt_settings,omitempty"`
	MemoryPolicy   MemoryPolicy   `json:"memory_policy"`
	Active         bool           `json:"is_active"`
	CreatedBy      string         `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Registry is an in-memory store of agent records.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*Agent)}
}

// Create stores a new agent and returns it with a generated id.
func (r *Registry) Create(a Agent) *Agent {
	now := time.Now().UTC()
	a.ID = uuid.New().String()
	if a.MemoryPolicy == "" {
		a.MemoryPolicy = MemorySession
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID] = &a
	out := a
	return &out
}

// Get returns the agent with the given id.
func (r *Registry) Get(id string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

// List returns all agents sorted by name.
func (r *Registry) List() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		aa := *a
		out = append(out, &aa)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Delete removes the agent with the given id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[id]; !ok {
		return ErrNotFound
	}
	delete(r.agents, id)
	return nil
}
