// Package memory provides the in-memory node store backend.
//
// It implements namespace.NodeStore, namespace.DomainRegistry, and
// namespace.MetaStore in one mutex-guarded structure. Nothing persists
// across restarts; this backend exists for tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// childKey indexes the composite uniqueness constraint.
type childKey struct {
	domain namespace.DomainID
	parent namespace.NodeID
	name   string
}

// Store is the in-memory backend. Safe for concurrent use; a single RWMutex
// guards all maps, so every operation is trivially atomic.
type Store struct {
	mu sync.RWMutex

	nodes    map[namespace.NodeID]namespace.Node
	children map[childKey]namespace.NodeID
	domains  map[namespace.DomainID]struct{}
	meta     map[namespace.FileID]map[string]string

	nextID namespace.NodeID
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		nodes:    make(map[namespace.NodeID]namespace.Node),
		children: make(map[childKey]namespace.NodeID),
		domains:  make(map[namespace.DomainID]struct{}),
		meta:     make(map[namespace.FileID]map[string]string),
	}
}

// Healthcheck always succeeds: the store has no external dependencies.
func (s *Store) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op; it exists so all node backends share a lifecycle.
func (s *Store) Close() error {
	return nil
}
