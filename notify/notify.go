//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package notify provides the notification/action collaborator the
// workflow engine's action executor delegates to.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/chavannishanthrao/AIFlowForge/log"
)

// Service performs a side-effecting action and returns its result map.
type Service interface {
	Perform(ctx context.Context, actionRef string, params map[string]any) (map[string]any, error)
}

var _ Service = (*Dispatcher)(nil)

// Dispatcher is the default Service: it simulates delivery and records
// what would have been sent. Real transports can be swapped in behind
// the Service interface.
type Dispatcher struct{}

// NewDispatcher creates a dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Perform dispatches the action. Supported actions: email, slack,
// webhook; anything else is acknowledged generically.
func (d *Dispatcher) Perform(ctx context.Context, actionRef string, params map[string]any) (map[string]any, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	switch actionRef {
	case "email":
		recipient, _ := params["recipient"].(string)
		if recipient == "" {
			return nil, fmt.Errorf("email action requires a recipient")
		}
		subject, _ := params["subject"].(string)
		if subject == "" {
			subject = "Workflow Result"
		}
		log.Infof("dispatching email to %s: %s", recipient, subject)
		return map[string]any{
			"action_type": "email",
			"recipient":   recipient,
			"subject":     subject,
			"sent":        true,
			"sent_at":     now,
		}, nil
	case "slack":
		channel, _ := params["channel"].(string)
		log.Infof("dispatching slack message to %s", channel)
		return map[string]any{
			"action_type": "slack",
			"channel":     channel,
			"sent":        true,
			"sent_at":     now,
		}, nil
	case "webhook":
		url, _ := params["url"].(string)
		if url == "" {
			return nil, fmt.Errorf("webhook action requires a url")
		}
		log.Infof("dispatching webhook call to %s", url)
		return map[string]any{
			"action_type": "webhook",
			"url":         url,
			"sent":        true,
			"sent_at":     now,
		}, nil
	default:
		log.Infof("dispatching action %s", actionRef)
		return map[string]any{
			"action_type": actionRef,
			"result":      "Action executed successfully",
			"executed_at": now,
		}, nil
	}
}
