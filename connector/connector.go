//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package connector provides connector records and the service the
// connector node executor delegates to.
package connector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies an external integration.
type Type string

// Supported connector types.
const (
	TypeSalesforce Type = "salesforce"
	TypeNetSuite   Type = "netsuite"
	TypeEmail      Type = "email"
	TypeSlack      Type = "slack"
	TypeOracle     Type = "oracle"
	TypeSAP        Type = "sap"
	TypeDynamics   Type = "dynamics"
)

// Errors returned by the registry and service.
var (
	// ErrNotFound reports an unknown connector id.
	ErrNotFound = errors.New("connector not found")
	// ErrUnsupportedType reports a connector type without a client.
	ErrUnsupportedType = errors.New("unsupported connector type")
	// ErrInactive reports an action against a deactivated connector.
	ErrInactive = errors.New("connector is not active")
)

// Connector is a configured integration record.
type Connector struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        Type           `json:"type"`
	Config      map[string]any `json:"config,omitempty"`
	Credentials map[string]any `json:"-"`
	Active      bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Service is the capability the workflow engine's connector executor
// consumes.
type Service interface {
	// TestConnection reports whether the connector's configuration is
	// usable.
	TestConnection(ctx context.Context, connectorID string) (bool, error)
	// ExecuteAction performs a named action against the integration.
	ExecuteAction(ctx context.Context, connectorID, action string, params map[string]any) (map[string]any, error)
}

// Registry is an in-memory store of connector records.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]*Connector
}

// NewRegistry creates an empty connector registry.
func NewRegistry() *Registry {
	return &Registry{connectors: make(map[string]*Connector)}
}

// Create stores a new connector record and returns it with a generated id.
func (r *Registry) Create(c Connector) *Connector {
	now := time.Now().UTC()
	c.ID = uuid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.ID] = &c
	out := c
	return &out
}

// Get returns the connector with the given id.
func (r *Registry) Get(id string) (*Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

// List returns all connectors sorted by name.
func (r *Registry) List() []*Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connector, 0, len(r.connectors))
	for _, c := range r.connectors {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Delete removes the connector with the given id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.connectors[id]; !ok {
		return ErrNotFound
	}
	delete(r.connectors, id)
	return nil
}
