//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSalesforce(t *testing.T, r *Registry, active bool) *Connector {
	t.Helper()
	return r.Create(Connector{
		Name:   "prod-salesforce",
		Type:   TypeSalesforce,
		Active: active,
		Config: map[string]any{"instance_url": "https://example.my.salesforce.com"},
	})
}

func TestTestConnection(t *testing.T) {
	r := NewRegistry()
	m := NewManager(r)
	ctx := context.Background()

	c := newSalesforce(t, r, true)
	ok, err := m.TestConnection(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Missing required config key.
	bare := r.Create(Connector{Name: "bare", Type: TypeSlack, Active: true})
	ok, err = m.TestConnection(ctx, bare.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.TestConnection(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	odd := r.Create(Connector{Name: "odd", Type: Type("fax"), Active: true})
	_, err = m.TestConnection(ctx, odd.ID)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExecuteActionSalesforceQuery(t *testing.T) {
	r := NewRegistry()
	m := NewManager(r)
	c := newSalesforce(t, r, true)

	out, err := m.ExecuteAction(context.Background(), c.ID, "query", map[string]any{
		"query": "SELECT Id, Amount FROM Opportunity",
	})
	require.NoError(t, err)
	assert.Equal(t, 15, out["totalSize"])
	assert.Equal(t, c.ID, out["connector_id"])
	assert.NotEmpty(t, out["executed_at"])

	records, ok := out["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 15)
	first := records[0].(map[string]any)
	assert.Equal(t, 1000, first["Amount"])
	last := records[14].(map[string]any)
	assert.Equal(t, 1000+14*100, last["Amount"])
}

func TestExecuteActionDefaultFetch(t *testing.T) {
	r := NewRegistry()
	m := NewManager(r)
	c := newSalesforce(t, r, true)

	out, err := m.ExecuteAction(context.Background(), c.ID, "fetch", nil)
	require.NoError(t, err)
	assert.Equal(t, 15, out["records_fetched"])
}

func TestExecuteActionValidation(t *testing.T) {
	r := NewRegistry()
	m := NewManager(r)
	ctx := context.Background()

	_, err := m.ExecuteAction(ctx, "missing", "query", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	inactive := newSalesforce(t, r, false)
	_, err = m.ExecuteAction(ctx, inactive.ID, "query", nil)
	assert.ErrorIs(t, err, ErrInactive)

	active := newSalesforce(t, r, true)
	_, err = m.ExecuteAction(ctx, active.ID, "query", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOQL query required")

	_, err = m.ExecuteAction(ctx, active.ID, "drop", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestExecuteActionEmailAndSlack(t *testing.T) {
	r := NewRegistry()
	m := NewManager(r)
	ctx := context.Background()

	email := r.Create(Connector{
		Name:   "smtp",
		Type:   TypeEmail,
		Active: true,
		Config: map[string]any{"smtp_host": "mail.example.com", "smtp_port": 587},
	})
	out, err := m.ExecuteAction(ctx, email.ID, "send", map[string]any{"recipient": "ops@example.com"})
	require.NoError(t, err)
	assert.Equal(t, true, out["sent"])

	_, err = m.ExecuteAction(ctx, email.ID, "send", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient required")

	slack := r.Create(Connector{
		Name:   "slack",
		Type:   TypeSlack,
		Active: true,
		Config: map[string]any{"webhook_url": "https://hooks.slack.com/x"},
	})
	out, err = m.ExecuteAction(ctx, slack.ID, "post", map[string]any{"channel": "#deals"})
	require.NoError(t, err)
	assert.Equal(t, true, out["posted"])
	assert.Equal(t, "#deals", out["channel"])
}

func TestRegistryCRUD(t *testing.T) {
	r := NewRegistry()
	a := r.Create(Connector{Name: "b-conn", Type: TypeOracle})
	r.Create(Connector{Name: "a-conn", Type: TypeSAP})

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a-conn", list[0].Name, "sorted by name")

	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "b-conn", got.Name)

	require.NoError(t, r.Delete(a.ID))
	assert.ErrorIs(t, r.Delete(a.ID), ErrNotFound)
}
