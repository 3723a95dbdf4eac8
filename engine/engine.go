//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package engine provides the workflow orchestrator: it validates a
// workflow's graph, drives one execution from submission to a terminal
// status, and exposes the status/cancel query surface over the
// execution store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chavannishanthrao/AIFlowForge/execution"
	"github.com/chavannishanthrao/AIFlowForge/executor"
	"github.com/chavannishanthrao/AIFlowForge/internal/expr"
	"github.com/chavannishanthrao/AIFlowForge/log"
	"github.com/chavannishanthrao/AIFlowForge/telemetry/trace"
	"github.com/chavannishanthrao/AIFlowForge/workflow"
)

// Errors surfaced by the engine.
var (
	// ErrCapacity rejects a submission once the configured maximum
	// number of in-flight executions is reached.
	ErrCapacity = errors.New("maximum concurrent executions reached")
	// ErrInternal reports a scheduling invariant violation. It should
	// be unreachable for definitions that passed validation.
	ErrInternal = errors.New("internal scheduling error")
)

// timeoutMessage is recorded on runs that exceed their wall-clock
// budget.
const timeoutMessage = "timeout"

// Engine orchestrates workflow executions. All of its methods are safe
// for concurrent use.
type Engine struct {
	store    *execution.Store
	registry *executor.Registry
	opts     Options
}

// New creates an engine over the given execution store and executor
// registry.
func New(store *execution.Store, registry *executor.Registry, opts ...Option) *Engine {
	options := Options{
		MaxConcurrentNodes:      defaultMaxConcurrentNodes,
		MaxConcurrentExecutions: defaultMaxConcurrentExecutions,
		RunTimeout:              defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Engine{store: store, registry: registry, opts: options}
}

// Submit validates the workflow's graph, creates an execution record
// and starts the run in the background. It never blocks on node
// execution: the returned record is already RUNNING. Validation
// failures are returned synchronously and create no record.
func (e *Engine) Submit(ctx context.Context, wf *workflow.Workflow, input map[string]any) (*execution.Execution, error) {
	ctx, span := trace.Tracer.Start(ctx, "submit_workflow")
	defer span.End()

	graph, err := workflow.Validate(wf.Definition)
	if err != nil {
		return nil, err
	}
	if e.store.ActiveCount() >= e.opts.MaxConcurrentExecutions {
		return nil, ErrCapacity
	}
	exec := e.store.Create(wf.ID, input)
	span.SetAttributes(
		attribute.String("aiflowforge.workflow_id", wf.ID),
		attribute.String("aiflowforge.execution_id", exec.ID),
		attribute.Int("aiflowforge.node_count", graph.Size()),
	)
	if err := e.store.UpdateStatus(exec.ID, execution.StatusRunning, ""); err != nil {
		return nil, err
	}
	log.Infof("execution %s submitted for workflow %s (%d nodes)", exec.ID, wf.ID, graph.Size())

	// Snapshot before the run starts so callers always observe RUNNING.
	snapshot, err := e.store.Get(exec.ID)
	if err != nil {
		return nil, err
	}
	go e.run(exec.ID, graph, exec.Input)
	return snapshot, nil
}

// Status returns a snapshot of the execution with the given id.
func (e *Engine) Status(executionID string) (*execution.Execution, error) {
	return e.store.Get(executionID)
}

// Cancel requests cooperative cancellation of a run. Nodes already in
// flight finish, but no further batch is scheduled. Cancelling a
// terminal execution fails with execution.ErrInvalidStateTransition.
func (e *Engine) Cancel(executionID string) error {
	return e.store.RequestCancellation(executionID)
}

// List returns execution snapshots, most recent first, optionally
// filtered by workflow id.
func (e *Engine) List(workflowID string, limit int) []*execution.Execution {
	return e.store.List(workflowID, limit)
}

// run is the background task driving one execution. It never lets a
// failure escape: every outcome is converted into a terminal status on
// the record.
func (e *Engine) run(execID string, graph *workflow.Graph, input map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.RunTimeout)
	defer cancel()
	ctx, span := trace.Tracer.Start(ctx, "run_workflow")
	defer span.End()
	span.SetAttributes(attribute.String("aiflowforge.execution_id", execID))

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("execution %s panicked: %v", execID, r)
			e.finish(execID, execution.StatusFailed, fmt.Sprintf("%v: panic: %v", ErrInternal, r))
		}
	}()

	// Unknown node types fail the whole run before anything is
	// dispatched.
	for _, n := range graph.Nodes() {
		if _, err := e.registry.Lookup(n.Type); err != nil {
			e.finish(execID, execution.StatusFailed, err.Error())
			return
		}
	}

	pool, err := ants.NewPool(e.opts.MaxConcurrentNodes)
	if err != nil {
		e.finish(execID, execution.StatusFailed, fmt.Sprintf("create worker pool: %v", err))
		return
	}
	defer pool.Release()

	runView := graph.NewRun()
	done := make(map[string]bool, graph.Size())
	outputs := make(map[string]map[string]any, graph.Size())

	for len(done) < graph.Size() {
		// Cancellation is cooperative and only observed here, at
		// batch boundaries. The store already holds the terminal
		// CANCELLED record.
		if e.store.CancelRequested(execID) {
			log.Infof("execution %s cancelled, stopping scheduler", execID)
			e.snapshot(execID)
			return
		}
		if ctx.Err() != nil {
			e.finish(execID, execution.StatusFailed, timeoutMessage)
			return
		}

		batch := runView.Ready(done)
		if len(batch) == 0 {
			e.finish(execID, execution.StatusFailed,
				fmt.Sprintf("%v: no ready nodes with %d of %d remaining", ErrInternal, graph.Size()-len(done), graph.Size()))
			return
		}
		if err := e.store.MarkRunning(execID, batch); err != nil {
			e.finish(execID, execution.StatusFailed, err.Error())
			return
		}

		results := e.dispatch(ctx, pool, graph, runView, batch, input, outputs)
		if results == nil {
			// Wall-clock budget expired mid-batch; in-flight nodes
			// are abandoned, not cancelled.
			e.finish(execID, execution.StatusFailed, timeoutMessage)
			return
		}

		// Fail fast on the first node error, in batch order.
		for _, res := range results {
			if res.err != nil {
				log.Errorf("execution %s node %s failed: %v", execID, res.nodeID, res.err)
				e.finish(execID, execution.StatusFailed, res.err.Error())
				return
			}
		}

		for _, res := range results {
			outputs[res.nodeID] = res.output
			done[res.nodeID] = true
			if err := e.store.UpdateNodeOutput(execID, res.nodeID, res.output); err != nil {
				e.finish(execID, execution.StatusFailed, err.Error())
				return
			}
		}

		if err := e.applyEdgeGuards(execID, graph, runView, batch, outputs, done); err != nil {
			e.finish(execID, execution.StatusFailed, err.Error())
			return
		}
	}

	e.finish(execID, execution.StatusSuccess, "")
}

type nodeResult struct {
	nodeID string
	output map[string]any
	err    error
}

// dispatch runs one batch on the worker pool and waits for it, racing
// the wait against the run deadline. A nil return means the deadline
// won.
func (e *Engine) dispatch(
	ctx context.Context,
	pool *ants.Pool,
	graph *workflow.Graph,
	runView *workflow.Run,
	batch []string,
	input map[string]any,
	outputs map[string]map[string]any,
) []nodeResult {
	results := make([]nodeResult, len(batch))
	var wg sync.WaitGroup
	for i, nodeID := range batch {
		node, _ := graph.Node(nodeID)
		nodeExec, err := e.registry.Lookup(node.Type)
		if err != nil {
			results[i] = nodeResult{nodeID: nodeID, err: err}
			continue
		}
		nodeInput, err := mergeInput(input, runView.LivePredecessors(nodeID), outputs)
		if err != nil {
			results[i] = nodeResult{nodeID: nodeID, err: err}
			continue
		}
		idx := i
		results[idx].nodeID = node.ID
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			// A panicking executor must fail its node, not leak into the
			// worker pool's handler and leave a zero result behind.
			defer func() {
				if r := recover(); r != nil {
					results[idx].err = fmt.Errorf("node %s: panic: %v", node.ID, r)
				}
			}()
			out, execErr := nodeExec.Execute(ctx, node, nodeInput)
			results[idx] = nodeResult{nodeID: node.ID, output: out, err: execErr}
		}); err != nil {
			wg.Done()
			results[i] = nodeResult{nodeID: nodeID, err: err}
		}
	}

	batchDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(batchDone)
	}()
	select {
	case <-batchDone:
		return results
	case <-ctx.Done():
		return nil
	}
}

// applyEdgeGuards evaluates edge conditions on the batch's condition
// nodes and prunes the false branches. Nodes made unreachable are
// recorded as skipped and count as done for scheduling.
func (e *Engine) applyEdgeGuards(
	execID string,
	graph *workflow.Graph,
	runView *workflow.Run,
	batch []string,
	outputs map[string]map[string]any,
	done map[string]bool,
) error {
	for _, nodeID := range batch {
		node, _ := graph.Node(nodeID)
		if node.Type != workflow.NodeTypeCondition {
			continue
		}
		for _, edge := range graph.Outgoing(nodeID) {
			if edge.Condition == "" {
				continue
			}
			keep, err := expr.Eval(edge.Condition, outputs[nodeID])
			if err != nil {
				return fmt.Errorf("edge %s->%s: %w", edge.From, edge.To, err)
			}
			if keep {
				continue
			}
			skipped := runView.Prune(edge.From, edge.To)
			if len(skipped) == 0 {
				continue
			}
			log.Debugf("execution %s: condition %s pruned %d node(s)", execID, nodeID, len(skipped))
			if err := e.store.MarkSkipped(execID, skipped); err != nil {
				return err
			}
			for _, id := range skipped {
				done[id] = true
			}
		}
	}
	return nil
}

// mergeInput builds a node's input: the execution's top-level input,
// then each predecessor's output merged in ascending node-id order so
// later predecessors overwrite colliding keys.
func mergeInput(base map[string]any, preds []string, outputs map[string]map[string]any) (map[string]any, error) {
	in := make(map[string]any, len(base))
	for k, v := range base {
		in[k] = v
	}
	for _, pred := range preds {
		out, ok := outputs[pred]
		if !ok {
			continue
		}
		if err := mergo.Merge(&in, out, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge output of %s: %w", pred, err)
		}
	}
	return in, nil
}

// finish writes the terminal status unless the record already reached
// one (a cancel can win the race), then persists a snapshot when a
// snapshot store is configured.
func (e *Engine) finish(execID string, status execution.Status, errMsg string) {
	if err := e.store.UpdateStatus(execID, status, errMsg); err != nil {
		if errors.Is(err, execution.ErrInvalidStateTransition) {
			// A cancel won the race; the record is already terminal and
			// still owed a snapshot.
			e.snapshot(execID)
		} else {
			log.Errorf("execution %s: record terminal status: %v", execID, err)
		}
		return
	}
	if errMsg != "" {
		log.Warnf("execution %s finished %s: %s", execID, status, errMsg)
	} else {
		log.Infof("execution %s finished %s", execID, status)
	}
	e.snapshot(execID)
}

// snapshot persists the execution's current (terminal) record when a
// snapshot store is configured. Saving is best effort.
func (e *Engine) snapshot(execID string) {
	if e.opts.Snapshots == nil {
		return
	}
	exec, err := e.store.Get(execID)
	if err != nil {
		return
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.opts.Snapshots.Save(sctx, exec); err != nil {
		log.Warnf("execution %s: snapshot save failed: %v", execID, err)
	}
}
