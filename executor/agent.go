//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package executor

import (
	"context"
	"fmt"

	"github.com/chavannishanthrao/AIFlowForge/agent"
	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

var _ Executor = (*Agent)(nil)

// Agent delegates a node to the agent/LLM collaborator, passing the
// accumulated upstream output as context.
type Agent struct {
	service agent.Service
}

// NewAgent creates an agent executor.
func NewAgent(service agent.Service) *Agent {
	return &Agent{service: service}
}

// Execute runs the configured agent with the node's input.
func (a *Agent) Execute(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error) {
	agentID, _ := node.Config["agent_id"].(string)
	if agentID == "" {
		return nil, fmt.Errorf("node %s: agent_id is required", node.ID)
	}
	return a.service.Run(ctx, agentID, input)
}
