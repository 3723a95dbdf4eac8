//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package executor

import (
	"context"

	"github.com/chavannishanthrao/AIFlowForge/notify"
	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

var _ Executor = (*Action)(nil)

// Action delegates a node to the notification collaborator to perform
// its side effect.
type Action struct {
	service notify.Service
}

// NewAction creates an action executor.
func NewAction(service notify.Service) *Action {
	return &Action{service: service}
}

// Execute performs the configured action. The action type defaults to
// email; the node config is passed as the action parameters with the
// node input available under "input".
func (a *Action) Execute(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error) {
	actionType, _ := node.Config["type"].(string)
	if actionType == "" {
		actionType = "email"
	}
	params := make(map[string]any, len(node.Config)+1)
	for k, v := range node.Config {
		params[k] = v
	}
	params["input"] = input
	return a.service.Perform(ctx, actionType, params)
}
