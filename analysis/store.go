// Copyright © 2024 The pyscope authors

package analysis

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/luthersystems/pyscope/ast"
)

// Store publishes the latest Snapshot of a module.  Rebinds are serialized;
// readers call Current without locking and keep whatever snapshot they
// got for as long as they need it.
type Store struct {
	mu  sync.Mutex
	gen uint64
	cur atomic.Pointer[Snapshot]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the most recently published snapshot, or nil.
func (s *Store) Current() *Snapshot {
	return s.cur.Load()
}

// Rebind binds mod and publishes the result.  A failed rebind leaves the
// current snapshot in place.
func (s *Store) Rebind(ctx context.Context, mod *ast.Module, cfg Config) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := Bind(ctx, mod, cfg)
	if err != nil {
		return nil, err
	}
	s.gen++
	snap.generation = s.gen
	s.cur.Store(snap)
	return snap, nil
}
