//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package badger provides a badger-backed snapshot store for terminal
// execution records.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v3"

	"github.com/chavannishanthrao/AIFlowForge/execution"
)

// ErrNotFound reports an unknown execution id.
var ErrNotFound = errors.New("execution snapshot not found")

const keyPrefix = "execution:"

// Store persists execution snapshots in a badger database.
type Store struct {
	db *badgerdb.DB
}

// Open opens (or creates) the snapshot database at dir.
func Open(dir string) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// Save writes the execution record, keyed by its id.
func (s *Store) Save(ctx context.Context, exec *execution.Execution) error {
	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("marshal execution %s: %w", exec.ID, err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyPrefix+exec.ID), data)
	})
}

// Load reads a previously saved execution record.
func (s *Store) Load(ctx context.Context, executionID string) (*execution.Execution, error) {
	var exec execution.Execution
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + executionID))
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &exec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
