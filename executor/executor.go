//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package executor provides the per-node-type execution capability the
// workflow engine dispatches to. New node types are supported by
// registering a new Executor implementation.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

// ErrUnknownNodeType reports a node type no executor is registered for.
// The engine fails the whole run before dispatching anything.
var ErrUnknownNodeType = errors.New("unknown node type")

// Executor performs a single node's work. Input is the execution's
// top-level input merged with the outputs of the node's predecessors;
// the returned map becomes the node's output. Implementations must
// treat input as read-only: its nested values may be shared with
// concurrent status readers.
type Executor interface {
	Execute(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error)
}

// Func adapts a plain function to the Executor interface.
type Func func(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error) {
	return f(ctx, node, input)
}

// Registry maps node types to executors.
type Registry struct {
	executors map[workflow.NodeType]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[workflow.NodeType]Executor)}
}

// Register binds an executor to a node type, replacing any previous
// binding.
func (r *Registry) Register(t workflow.NodeType, e Executor) {
	r.executors[t] = e
}

// Lookup returns the executor registered for the node type.
func (r *Registry) Lookup(t workflow.NodeType) (Executor, error) {
	e, ok := r.executors[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, t)
	}
	return e, nil
}
