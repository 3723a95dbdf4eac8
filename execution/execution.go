//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package execution provides execution records and the process-wide
// store that tracks in-flight and completed workflow runs.
package execution

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an execution.
type Status string

// Execution statuses. PENDING transitions to RUNNING inside the
// submission call; every later transition ends in exactly one of the
// terminal states.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// Errors returned by the store.
var (
	// ErrNotFound reports an unknown execution id.
	ErrNotFound = errors.New("execution not found")
	// ErrInvalidStateTransition reports an attempt to move an
	// execution out of a terminal status.
	ErrInvalidStateTransition = errors.New("execution already in terminal state")
)

// CancelledByCaller is the error message recorded on cancelled runs.
const CancelledByCaller = "cancelled by caller"

// Execution is the record of one workflow run. Records returned by the
// store are snapshots: mutating them never affects stored state.
type Execution struct {
	ID               string                    `json:"id"`
	WorkflowID       string                    `json:"workflow_id"`
	Status           Status                    `json:"status"`
	Input            map[string]any            `json:"input,omitempty"`
	NodeOutputs      map[string]map[string]any `json:"node_outputs,omitempty"`
	CompletedNodes   []string                  `json:"completed_nodes,omitempty"`
	SkippedNodes     []string                  `json:"skipped_nodes,omitempty"`
	CurrentlyRunning []string                  `json:"currently_running,omitempty"`
	Error            string                    `json:"error,omitempty"`
	StartedAt        time.Time                 `json:"started_at"`
	CompletedAt      *time.Time                `json:"completed_at,omitempty"`
}

func (e *Execution) clone() *Execution {
	out := *e
	out.Input = copyMap(e.Input)
	out.CompletedNodes = append([]string(nil), e.CompletedNodes...)
	out.SkippedNodes = append([]string(nil), e.SkippedNodes...)
	out.CurrentlyRunning = append([]string(nil), e.CurrentlyRunning...)
	if e.NodeOutputs != nil {
		out.NodeOutputs = make(map[string]map[string]any, len(e.NodeOutputs))
		for id, m := range e.NodeOutputs {
			out.NodeOutputs[id] = copyMap(m)
		}
	}
	if e.CompletedAt != nil {
		at := *e.CompletedAt
		out.CompletedAt = &at
	}
	return &out
}

// copyMap copies a value map deeply so snapshots never share nested
// maps or slices with the live record.
func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
