//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package skill provides skill records and their in-memory registry.
package skill

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type categorizes what a skill does.
type Type string

// Skill types.
const (
	TypeDataExtraction Type = "data_extraction"
	TypeDataProcessing Type = "data_processing"
	TypeCommunication  Type = "communication"
	TypeAnalysis       Type = "analysis"
	TypeAutomation     Type = "automation"
)

// ErrNotFound reports an unknown skill id.
var ErrNotFound = errors.New("skill not found")

// Skill is a reusable capability an agent can be composed from.
type Skill struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	Type               Type           `json:"type"`
	Config             map[string]any `json:"config,omitempty"`
	RequiredConnectors []string       `json:"required_connectors,omitempty"`
	Active             bool           `json:"is_active"`
	CreatedBy          string         `json:"created_by,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Registry is an in-memory store of skill records.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]*Skill
}

// NewRegistry creates an empty skill registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]*Skill)}
}

// Create stores a new skill and returns it with a generated id.
func (r *Registry) Create(s Skill) *Skill {
	now := time.Now().UTC()
	s.ID = uuid.New().String()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[s.ID] = &s
	out := s
	return &out
}

// Get returns the skill with the given id.
func (r *Registry) Get(id string) (*Skill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s
	return &out, nil
}

// List returns all skills sorted by name.
func (r *Registry) List() []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Skill, 0, len(r.skills))
	for _, s := range r.skills {
		ss := *s
		out = append(out, &ss)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Delete removes the skill with the given id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.skills[id]; !ok {
		return ErrNotFound
	}
	delete(r.skills, id)
	return nil
}
