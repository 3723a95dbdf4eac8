//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chavannishanthrao/AIFlowForge/connector"
	"github.com/chavannishanthrao/AIFlowForge/engine"
	"github.com/chavannishanthrao/AIFlowForge/execution"
	"github.com/chavannishanthrao/AIFlowForge/executor"
	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

func newTestServer(t *testing.T, engineOpts ...engine.Option) (*Server, *workflow.Registry) {
	t.Helper()
	registry := executor.NewRegistry()
	echo := executor.Func(func(ctx context.Context, node workflow.Node, input map[string]any) (map[string]any, error) {
		return map[string]any{"node": node.ID}, nil
	})
	registry.Register(workflow.NodeTypeTrigger, echo)
	registry.Register(workflow.NodeTypeConnector, echo)
	registry.Register(workflow.NodeTypeAgent, echo)
	registry.Register(workflow.NodeTypeAction, echo)
	registry.Register(workflow.NodeTypeCondition, executor.NewCondition())

	workflows := workflow.NewRegistry()
	eng := engine.New(execution.NewStore(), registry, engineOpts...)
	return New(eng, workflows), workflows
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func validDefinition() workflow.Definition {
	return workflow.Definition{
		Nodes: []workflow.Node{
			{ID: "trigger", Type: workflow.NodeTypeTrigger},
			{ID: "notify", Type: workflow.NodeTypeAction},
		},
		Edges: []workflow.Edge{{From: "trigger", To: "notify"}},
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWorkflowCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/workflows", workflow.Workflow{
		Name:       "deal-review",
		Definition: validDefinition(),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created workflow.Workflow
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)

	w = doJSON(t, h, http.MethodGet, "/api/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/workflows", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []workflow.Workflow
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = doJSON(t, h, http.MethodPut, "/api/workflows/"+created.ID, workflow.Workflow{Name: "renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated workflow.Workflow
	decode(t, w, &updated)
	assert.Equal(t, "renamed", updated.Name)

	w = doJSON(t, h, http.MethodDelete, "/api/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateWorkflowRejectsInvalidDefinition(t *testing.T) {
	srv, _ := newTestServer(t)

	def := workflow.Definition{
		Nodes: []workflow.Node{
			{ID: "a", Type: workflow.NodeTypeTrigger},
			{ID: "a", Type: workflow.NodeTypeAction},
		},
	}
	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/workflows", workflow.Workflow{
		Name:       "broken",
		Definition: def,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]any
	decode(t, w, &body)
	assert.Contains(t, body["error"], "duplicate node id")
}

func TestExecuteWorkflowLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/workflows", workflow.Workflow{
		Name:       "deal-review",
		Definition: validDefinition(),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var wf workflow.Workflow
	decode(t, w, &wf)

	w = doJSON(t, h, http.MethodPost, "/api/workflows/"+wf.ID+"/execute", map[string]any{
		"input": map[string]any{"deal_id": "42"},
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted map[string]any
	decode(t, w, &accepted)
	execID, _ := accepted["execution_id"].(string)
	require.NotEmpty(t, execID)
	assert.Equal(t, string(execution.StatusRunning), accepted["status"])

	require.Eventually(t, func() bool {
		w := doJSON(t, h, http.MethodGet, "/api/executions/"+execID, nil)
		if w.Code != http.StatusOK {
			return false
		}
		var exec execution.Execution
		decode(t, w, &exec)
		return exec.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	w = doJSON(t, h, http.MethodGet, "/api/executions/"+execID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var exec execution.Execution
	decode(t, w, &exec)
	assert.Equal(t, execution.StatusSuccess, exec.Status)
	assert.Len(t, exec.NodeOutputs, 2)

	w = doJSON(t, h, http.MethodGet, "/api/executions?workflow_id="+wf.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []execution.Execution
	decode(t, w, &listed)
	assert.Len(t, listed, 1)
}

func TestExecuteUnknownWorkflow(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/workflows/missing/execute", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteAtCapacity(t *testing.T) {
	srv, workflows := newTestServer(t, engine.WithMaxConcurrentExecutions(0))
	wf := workflows.Create(workflow.Workflow{Name: "wf", Definition: validDefinition()})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/api/workflows/"+wf.ID+"/execute", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCancelExecution(t *testing.T) {
	srv, workflows := newTestServer(t)
	h := srv.Handler()
	wf := workflows.Create(workflow.Workflow{Name: "wf", Definition: validDefinition()})

	w := doJSON(t, h, http.MethodPost, "/api/workflows/"+wf.ID+"/execute", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var accepted map[string]any
	decode(t, w, &accepted)
	execID := accepted["execution_id"].(string)

	require.Eventually(t, func() bool {
		w := doJSON(t, h, http.MethodGet, "/api/executions/"+execID, nil)
		var exec execution.Execution
		decode(t, w, &exec)
		return exec.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	// The run already finished; cancel now conflicts.
	w = doJSON(t, h, http.MethodPost, "/api/executions/"+execID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/executions/missing/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConnectorEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/connectors", connector.Connector{
		Name:   "prod-salesforce",
		Type:   connector.TypeSalesforce,
		Active: true,
		Config: map[string]any{
			"instance_url":  "https://example.my.salesforce.com",
			"client_id":     "id",
			"client_secret": "secret",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created connector.Connector
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)

	w = doJSON(t, h, http.MethodPost, "/api/connectors/"+created.ID+"/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	decode(t, w, &health)
	assert.Equal(t, true, health["healthy"])

	w = doJSON(t, h, http.MethodPost, "/api/connectors/missing/test", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListExecutionsRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/executions?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
