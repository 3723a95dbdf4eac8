//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package workflow

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports an unknown workflow id.
var ErrNotFound = errors.New("workflow not found")

// Registry is an in-memory store of workflow records.
type Registry struct {
	mu        sync.RWMutex
	workflows map[string]*Workflow
}

// NewRegistry creates an empty workflow registry.
func NewRegistry() *Registry {
	return &Registry{workflows: make(map[string]*Workflow)}
}

// Create stores a new workflow record and returns it with a generated id.
func (r *Registry) Create(wf Workflow) *Workflow {
	now := time.Now().UTC()
	wf.ID = uuid.New().String()
	wf.CreatedAt = now
	wf.UpdatedAt = now
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows[wf.ID] = &wf
	return copyWorkflow(&wf)
}

// Get returns the workflow with the given id.
func (r *Registry) Get(id string) (*Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wf, ok := r.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyWorkflow(wf), nil
}

// List returns all workflows, most recently created first.
func (r *Registry) List() []*Workflow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Workflow, 0, len(r.workflows))
	for _, wf := range r.workflows {
		out = append(out, copyWorkflow(wf))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Update replaces the mutable fields of an existing workflow. In-flight
// executions are unaffected: they run against their own definition copy.
func (r *Registry) Update(id string, update Workflow) (*Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Name != "" {
		wf.Name = update.Name
	}
	if update.Description != "" {
		wf.Description = update.Description
	}
	if update.Definition.Nodes != nil {
		wf.Definition = update.Definition.Clone()
	}
	wf.Active = update.Active
	wf.Schedule = update.Schedule
	wf.UpdatedAt = time.Now().UTC()
	return copyWorkflow(wf), nil
}

// Delete removes the workflow with the given id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(r.workflows, id)
	return nil
}

func copyWorkflow(wf *Workflow) *Workflow {
	out := *wf
	out.Definition = wf.Definition.Clone()
	return &out
}
