//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"context"
	"time"

	"github.com/chavannishanthrao/AIFlowForge/execution"
)

// Defaults applied when no option overrides them.
const (
	defaultMaxConcurrentNodes      = 4
	defaultMaxConcurrentExecutions = 64
	defaultRunTimeout              = 10 * time.Minute
)

// SnapshotStore persists terminal execution records for durability.
// Saving is best effort: a failed save never fails the run.
type SnapshotStore interface {
	Save(ctx context.Context, exec *execution.Execution) error
}

// Options contains configuration options for creating an Engine.
type Options struct {
	// MaxConcurrentNodes bounds how many nodes of one batch run at
	// the same time.
	MaxConcurrentNodes int
	// MaxConcurrentExecutions bounds how many executions may be in
	// flight process-wide; submissions beyond it are rejected.
	MaxConcurrentExecutions int
	// RunTimeout is the wall-clock budget for a whole run.
	RunTimeout time.Duration
	// Snapshots, when set, receives every terminal execution record.
	Snapshots SnapshotStore
}

// Option is a function that configures an Engine.
type Option func(*Options)

// WithMaxConcurrentNodes bounds intra-batch node concurrency.
func WithMaxConcurrentNodes(n int) Option {
	return func(o *Options) { o.MaxConcurrentNodes = n }
}

// WithMaxConcurrentExecutions bounds process-wide in-flight executions.
func WithMaxConcurrentExecutions(n int) Option {
	return func(o *Options) { o.MaxConcurrentExecutions = n }
}

// WithRunTimeout sets the wall-clock budget for a whole run.
func WithRunTimeout(d time.Duration) Option {
	return func(o *Options) { o.RunTimeout = d }
}

// WithSnapshotStore persists terminal execution records to the given
// store.
func WithSnapshotStore(s SnapshotStore) Option {
	return func(o *Options) { o.Snapshots = s }
}
