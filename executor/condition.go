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

	"github.com/chavannishanthrao/AIFlowForge/internal/expr"
	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

var _ Executor = (*Condition)(nil)

// Condition evaluates the node's condition expression against the
// merged upstream output and reports the boolean result. It does not
// branch itself: routing on the result is the engine's job, via edge
// guards.
type Condition struct{}

// NewCondition creates a condition executor.
func NewCondition() *Condition {
	return &Condition{}
}

// Execute evaluates node.Config["condition"]. A missing expression
// evaluates to true. The node's input is echoed into the output so edge
// guards can reference upstream values.
func (c *Condition) Execute(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error) {
	expression, _ := node.Config["condition"].(string)
	result, err := expr.Eval(expression, input)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(input)+3)
	for k, v := range input {
		out[k] = v
	}
	out["condition"] = expression
	out["result"] = result
	out["evaluated_at"] = time.Now().UTC().Format(time.RFC3339)
	return out, nil
}
