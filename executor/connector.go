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

	"github.com/chavannishanthrao/AIFlowForge/connector"
	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

var _ Executor = (*Connector)(nil)

// Connector delegates a node to the connector collaborator. Collaborator
// failures abort the run.
type Connector struct {
	service connector.Service
}

// NewConnector creates a connector executor.
func NewConnector(service connector.Service) *Connector {
	return &Connector{service: service}
}

// Execute performs the configured action against the configured
// integration. The action defaults to "fetch".
func (c *Connector) Execute(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error) {
	connectorID, _ := node.Config["connector_id"].(string)
	if connectorID == "" {
		return nil, fmt.Errorf("node %s: connector_id is required", node.ID)
	}
	action, _ := node.Config["action"].(string)
	if action == "" {
		action = "fetch"
	}
	params, _ := node.Config["params"].(map[string]any)
	if params == nil {
		params = input
	}
	return c.service.ExecuteAction(ctx, connectorID, action, params)
}
