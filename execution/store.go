//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package execution

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is a concurrency-safe table of execution records keyed by id.
// All access to one record is serialized through its own lock, so a
// status read never observes a partially updated node-output/completed
// pair. Instantiate one Store per process and pass it by handle.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
}

type record struct {
	mu              sync.Mutex
	exec            *Execution
	cancelRequested bool
}

// NewStore creates an empty execution store.
func NewStore() *Store {
	return &Store{records: make(map[string]*record)}
}

// Create inserts a new PENDING record for the workflow and returns a
// snapshot of it.
func (s *Store) Create(workflowID string, input map[string]any) *Execution {
	exec := &Execution{
		ID:          uuid.New().String(),
		WorkflowID:  workflowID,
		Status:      StatusPending,
		Input:       copyMap(input),
		NodeOutputs: make(map[string]map[string]any),
		StartedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.records[exec.ID] = &record{exec: exec}
	s.mu.Unlock()
	return exec.clone()
}

func (s *Store) record(id string) (*record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Get returns a snapshot of the execution with the given id.
func (s *Store) Get(id string) (*Execution, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.exec.clone(), nil
}

// UpdateStatus transitions the execution to the given status. Terminal
// records are immutable: the transition is rejected with
// ErrInvalidStateTransition. Reaching a terminal status stamps
// CompletedAt and clears the currently-running set.
func (s *Store) UpdateStatus(id string, status Status, errMsg string) error {
	rec, err := s.record(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.exec.Status.Terminal() {
		return ErrInvalidStateTransition
	}
	rec.exec.Status = status
	if errMsg != "" {
		rec.exec.Error = errMsg
	}
	if status.Terminal() {
		now := time.Now().UTC()
		rec.exec.CompletedAt = &now
		rec.exec.CurrentlyRunning = nil
	}
	return nil
}

// MarkRunning records the nodes of the current batch as in flight.
// Writes against terminal records are dropped: an abandoned batch must
// not disturb an already resolved run.
func (s *Store) MarkRunning(id string, nodes []string) error {
	rec, err := s.record(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.exec.Status.Terminal() {
		return nil
	}
	rec.exec.CurrentlyRunning = append([]string(nil), nodes...)
	return nil
}

// UpdateNodeOutput records a completed node's output and moves the node
// from the currently-running set into the completed set. Writes against
// terminal records are dropped.
func (s *Store) UpdateNodeOutput(id, nodeID string, output map[string]any) error {
	rec, err := s.record(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.exec.Status.Terminal() {
		return nil
	}
	rec.exec.NodeOutputs[nodeID] = copyMap(output)
	rec.exec.CompletedNodes = append(rec.exec.CompletedNodes, nodeID)
	rec.exec.CurrentlyRunning = remove(rec.exec.CurrentlyRunning, nodeID)
	return nil
}

// MarkSkipped records nodes made unreachable by false edge guards.
func (s *Store) MarkSkipped(id string, nodes []string) error {
	rec, err := s.record(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.exec.Status.Terminal() {
		return nil
	}
	rec.exec.SkippedNodes = append(rec.exec.SkippedNodes, nodes...)
	return nil
}

// RequestCancellation marks the execution CANCELLED and raises the
// cancellation flag the scheduling loop checks at batch boundaries.
// Nodes already dispatched are allowed to finish; their late writes are
// dropped by the terminal-state guard. Cancelling a terminal execution
// fails with ErrInvalidStateTransition and leaves the record unchanged.
func (s *Store) RequestCancellation(id string) error {
	rec, err := s.record(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.exec.Status.Terminal() {
		return ErrInvalidStateTransition
	}
	rec.cancelRequested = true
	rec.exec.Status = StatusCancelled
	rec.exec.Error = CancelledByCaller
	now := time.Now().UTC()
	rec.exec.CompletedAt = &now
	rec.exec.CurrentlyRunning = nil
	return nil
}

// CancelRequested reports whether cancellation was requested for the
// execution. Unknown ids report true so an orphaned scheduling loop
// stops rather than spins.
func (s *Store) CancelRequested(id string) bool {
	rec, err := s.record(id)
	if err != nil {
		return true
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.cancelRequested
}

// List returns snapshots of executions, most recent first by StartedAt.
// A non-empty workflowID filters to that workflow; limit <= 0 means no
// limit.
func (s *Store) List(workflowID string, limit int) []*Execution {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	out := make([]*Execution, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		if workflowID == "" || rec.exec.WorkflowID == workflowID {
			out = append(out, rec.exec.clone())
		}
		rec.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ActiveCount returns the number of executions that have not reached a
// terminal status. The engine uses it for admission control.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	count := 0
	for _, rec := range recs {
		rec.mu.Lock()
		if !rec.exec.Status.Terminal() {
			count++
		}
		rec.mu.Unlock()
	}
	return count
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
