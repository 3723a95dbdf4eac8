//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/chavannishanthrao/AIFlowForge/log"
)

// requiredConfig lists the configuration keys each connector type needs
// before a connection test passes.
var requiredConfig = map[Type][]string{
	TypeSalesforce: {"instance_url"},
	TypeNetSuite:   {"account_id"},
	TypeEmail:      {"smtp_host", "smtp_port"},
	TypeSlack:      {"webhook_url"},
	TypeOracle:     {"host"},
	TypeSAP:        {"host"},
	TypeDynamics:   {"org_url"},
}

var _ Service = (*Manager)(nil)

// Manager implements Service over the connector registry. Integrations
// run in simulation: actions return deterministic, shape-faithful
// results instead of reaching the remote systems.
type Manager struct {
	registry *Registry
}

// NewManager creates a connector service backed by the given registry.
func NewManager(registry *Registry) *Manager {
	return &Manager{registry: registry}
}

// TestConnection reports whether the connector's configuration carries
// every key its type requires.
func (m *Manager) TestConnection(ctx context.Context, connectorID string) (bool, error) {
	c, err := m.registry.Get(connectorID)
	if err != nil {
		return false, err
	}
	required, ok := requiredConfig[c.Type]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedType, c.Type)
	}
	for _, key := range required {
		if _, present := c.Config[key]; !present {
			log.Debugf("connector %s missing config key %s", c.ID, key)
			return false, nil
		}
	}
	return true, nil
}

// ExecuteAction performs the named action against the connector's
// integration and returns the integration's result map.
func (m *Manager) ExecuteAction(ctx context.Context, connectorID, action string, params map[string]any) (map[string]any, error) {
	c, err := m.registry.Get(connectorID)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, ErrInactive
	}
	var result map[string]any
	switch c.Type {
	case TypeSalesforce:
		result, err = salesforceAction(action, params)
	case TypeNetSuite:
		result, err = netsuiteAction(action, params)
	case TypeEmail:
		result, err = emailAction(action, params)
	case TypeSlack:
		result, err = slackAction(action, params)
	case TypeOracle, TypeSAP, TypeDynamics:
		result, err = genericAction(c.Type, action, params)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, c.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("connector %s action %s: %w", c.Name, action, err)
	}
	result["connector_id"] = c.ID
	result["executed_at"] = time.Now().UTC().Format(time.RFC3339)
	return result, nil
}

func salesforceAction(action string, params map[string]any) (map[string]any, error) {
	switch action {
	case "fetch":
		records := cannedRecords()
		return map[string]any{
			"action":          action,
			"records_fetched": len(records),
			"records":         records,
		}, nil
	case "query":
		soql, _ := params["query"].(string)
		if soql == "" {
			return nil, fmt.Errorf("SOQL query required")
		}
		records := cannedRecords()
		return map[string]any{"action": action, "totalSize": len(records), "records": records}, nil
	case "create", "update":
		if _, ok := params["sobject"]; !ok {
			return nil, fmt.Errorf("SObject type required")
		}
		return map[string]any{"action": action, "success": true}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", action)
	}
}

func cannedRecords() []any {
	records := make([]any, 0, 15)
	for i := 0; i < 15; i++ {
		records = append(records, map[string]any{
			"Id":     fmt.Sprintf("001%012d", i),
			"Amount": 1000 + i*100,
		})
	}
	return records
}

func netsuiteAction(action string, params map[string]any) (map[string]any, error) {
	switch action {
	case "fetch":
		return map[string]any{"action": action, "records_fetched": 10, "items": []any{}}, nil
	case "suiteql":
		q, _ := params["query"].(string)
		if q == "" {
			return nil, fmt.Errorf("SuiteQL query required")
		}
		return map[string]any{"action": action, "count": 10, "items": []any{}}, nil
	case "restlet":
		if _, ok := params["script_id"]; !ok {
			return nil, fmt.Errorf("script ID required")
		}
		return map[string]any{"action": action, "success": true}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", action)
	}
}

func emailAction(action string, params map[string]any) (map[string]any, error) {
	if action != "send" {
		return nil, fmt.Errorf("unknown action: %s", action)
	}
	recipient, _ := params["recipient"].(string)
	if recipient == "" {
		return nil, fmt.Errorf("recipient required")
	}
	return map[string]any{"action": action, "recipient": recipient, "sent": true}, nil
}

func slackAction(action string, params map[string]any) (map[string]any, error) {
	if action != "post" {
		return nil, fmt.Errorf("unknown action: %s", action)
	}
	channel, _ := params["channel"].(string)
	return map[string]any{"action": action, "channel": channel, "posted": true}, nil
}

func genericAction(t Type, action string, params map[string]any) (map[string]any, error) {
	return map[string]any{
		"action": action,
		"type":   string(t),
		"result": "ok",
	}, nil
}
