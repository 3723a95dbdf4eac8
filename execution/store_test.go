//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package execution

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", map[string]any{"key": "value"})
	require.NotEmpty(t, exec.ID)
	assert.Equal(t, "wf-1", exec.WorkflowID)
	assert.Equal(t, StatusPending, exec.Status)
	assert.False(t, exec.StartedAt.IsZero())
	assert.Nil(t, exec.CompletedAt)

	got, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, exec.ID, got.ID)
	assert.Equal(t, "value", got.Input["key"])
}

func TestGetUnknownID(t *testing.T) {
	s := NewStore()
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", nil)
	require.NoError(t, s.UpdateNodeOutput(exec.ID, "n1", map[string]any{"v": 1}))

	snap, err := s.Get(exec.ID)
	require.NoError(t, err)
	snap.NodeOutputs["n1"]["v"] = 99
	snap.CompletedNodes = append(snap.CompletedNodes, "tampered")

	fresh, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.NodeOutputs["n1"]["v"])
	assert.Equal(t, []string{"n1"}, fresh.CompletedNodes)
}

func TestSnapshotsCopyNestedValues(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", map[string]any{
		"deal": map[string]any{"amount": 1000},
	})
	require.NoError(t, s.UpdateNodeOutput(exec.ID, "n1", map[string]any{
		"records": []any{map[string]any{"Id": "001"}},
	}))

	snap, err := s.Get(exec.ID)
	require.NoError(t, err)
	snap.Input["deal"].(map[string]any)["amount"] = -1
	snap.NodeOutputs["n1"]["records"].([]any)[0].(map[string]any)["Id"] = "tampered"

	fresh, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, fresh.Input["deal"].(map[string]any)["amount"])
	assert.Equal(t, "001", fresh.NodeOutputs["n1"]["records"].([]any)[0].(map[string]any)["Id"])
}

func TestUpdateStatusStampsCompletion(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", nil)
	require.NoError(t, s.UpdateStatus(exec.ID, StatusRunning, ""))
	require.NoError(t, s.MarkRunning(exec.ID, []string{"n1"}))
	require.NoError(t, s.UpdateStatus(exec.ID, StatusFailed, "LLM unavailable"))

	got, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "LLM unavailable", got.Error)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.CurrentlyRunning, "terminal status clears the running set")
}

func TestTerminalRecordsAreImmutable(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", nil)
	require.NoError(t, s.UpdateStatus(exec.ID, StatusSuccess, ""))

	err := s.UpdateStatus(exec.ID, StatusFailed, "too late")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	// Node writes against a terminal record are dropped, not errors.
	require.NoError(t, s.UpdateNodeOutput(exec.ID, "late", map[string]any{"v": 1}))
	require.NoError(t, s.MarkRunning(exec.ID, []string{"late"}))
	require.NoError(t, s.MarkSkipped(exec.ID, []string{"late"}))

	got, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Empty(t, got.NodeOutputs)
	assert.Empty(t, got.SkippedNodes)
	assert.Empty(t, got.CurrentlyRunning)
}

func TestRequestCancellation(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", nil)
	require.NoError(t, s.UpdateStatus(exec.ID, StatusRunning, ""))

	require.NoError(t, s.RequestCancellation(exec.ID))
	assert.True(t, s.CancelRequested(exec.ID))

	got, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, CancelledByCaller, got.Error)
	require.NotNil(t, got.CompletedAt)

	// A second cancel hits a terminal record.
	assert.ErrorIs(t, s.RequestCancellation(exec.ID), ErrInvalidStateTransition)
}

func TestCancelTerminalExecution(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", nil)
	require.NoError(t, s.UpdateStatus(exec.ID, StatusSuccess, ""))

	assert.ErrorIs(t, s.RequestCancellation(exec.ID), ErrInvalidStateTransition)

	got, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status, "failed cancel leaves the record unchanged")
}

func TestCancelRequestedUnknownID(t *testing.T) {
	s := NewStore()
	assert.True(t, s.CancelRequested("missing"), "orphaned loops must stop")
}

func TestNodeOutputLifecycle(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", nil)
	require.NoError(t, s.UpdateStatus(exec.ID, StatusRunning, ""))
	require.NoError(t, s.MarkRunning(exec.ID, []string{"a", "b"}))

	require.NoError(t, s.UpdateNodeOutput(exec.ID, "a", map[string]any{"v": "out-a"}))

	got, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.CompletedNodes)
	assert.Equal(t, []string{"b"}, got.CurrentlyRunning)
	assert.Equal(t, "out-a", got.NodeOutputs["a"]["v"])
}

func TestListOrderFilterAndLimit(t *testing.T) {
	s := NewStore()
	s.Create("wf-1", nil)
	s.Create("wf-2", nil)
	s.Create("wf-1", nil)

	all := s.List("", 0)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i-1].StartedAt.Before(all[i].StartedAt), "most recent first")
	}

	filtered := s.List("wf-1", 0)
	require.Len(t, filtered, 2)
	for _, e := range filtered {
		assert.Equal(t, "wf-1", e.WorkflowID)
	}

	limited := s.List("", 2)
	assert.Len(t, limited, 2)
}

func TestActiveCount(t *testing.T) {
	s := NewStore()
	a := s.Create("wf-1", nil)
	s.Create("wf-1", nil)
	assert.Equal(t, 2, s.ActiveCount())

	require.NoError(t, s.UpdateStatus(a.ID, StatusSuccess, ""))
	assert.Equal(t, 1, s.ActiveCount())
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	exec := s.Create("wf-1", nil)
	require.NoError(t, s.UpdateStatus(exec.ID, StatusRunning, ""))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.UpdateNodeOutput(exec.ID, "n", map[string]any{"i": n})
			_, _ = s.Get(exec.ID)
			_ = s.List("", 0)
		}(i)
	}
	wg.Wait()

	got, err := s.Get(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
}
