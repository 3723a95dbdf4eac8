//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package executor

import (
	"context"
	"time"

	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

var _ Executor = (*Trigger)(nil)

// Trigger synthesizes a deterministic record of how the run was
// initiated. It performs no external I/O.
type Trigger struct{}

// NewTrigger creates a trigger executor.
func NewTrigger() *Trigger {
	return &Trigger{}
}

// Execute derives the trigger output from the node config and the
// execution's top-level input. The trigger kind defaults to manual.
func (t *Trigger) Execute(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error) {
	triggeredAt := time.Now().UTC().Format(time.RFC3339)
	kind, _ := node.Config["type"].(string)
	switch kind {
	case "schedule":
		return map[string]any{
			"trigger_type": "schedule",
			"triggered_at": triggeredAt,
			"cron":         node.Config["cron"],
		}, nil
	case "webhook":
		payload, _ := input["webhook_payload"].(map[string]any)
		if payload == nil {
			payload = map[string]any{}
		}
		return map[string]any{
			"trigger_type": "webhook",
			"triggered_at": triggeredAt,
			"payload":      payload,
		}, nil
	default:
		return map[string]any{
			"trigger_type": "manual",
			"triggered_at": triggeredAt,
			"user_input":   input,
		}, nil
	}
}
