//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package workflow provides workflow definitions and the dependency
// graph model used to schedule their execution.
package workflow

import "time"

// NodeType identifies the kind of work a node performs.
type NodeType string

// Node types understood by the execution engine.
const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeConnector NodeType = "connector"
	NodeTypeAgent     NodeType = "agent"
	NodeTypeAction    NodeType = "action"
	NodeTypeCondition NodeType = "condition"
)

// Node is a typed unit of work in a workflow graph.
type Node struct {
	ID     string         `json:"id"`
	Type   NodeType       `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// Edge is a directed dependency between two nodes. Condition optionally
// guards the edge; it is only evaluated on edges leaving condition nodes.
type Edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition,omitempty"`
}

// Definition is the declarative node/edge graph of a workflow. It is
// immutable once an execution starts: each execution holds its own copy.
type Definition struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Workflow is a persisted workflow record.
type Workflow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Definition  Definition `json:"definition"`
	Active      bool       `json:"is_active"`
	Schedule    string     `json:"schedule,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of the definition so that executions are
// insulated from later updates to the stored workflow.
func (d Definition) Clone() Definition {
	out := Definition{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	copy(out.Edges, d.Edges)
	for i, n := range d.Nodes {
		out.Nodes[i] = Node{ID: n.ID, Type: n.Type, Config: copyConfig(n.Config)}
	}
	return out
}

func copyConfig(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
