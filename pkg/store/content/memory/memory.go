// Package memory provides an in-memory content store for tests and local
// development. Only the metadata surface the namespace consumes is
// implemented: existence/length lookup and deletion, plus Put for seeding.
package memory

import (
	"context"
	"sync"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// Store holds objects as byte slices keyed by fid.
type Store struct {
	mu      sync.RWMutex
	objects map[namespace.FileID][]byte
}

// NewStore creates an empty in-memory content store.
func NewStore() *Store {
	return &Store{objects: make(map[namespace.FileID][]byte)}
}

// Put stores (or replaces) the object for fid.
func (s *Store) Put(fid namespace.FileID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[fid] = append([]byte(nil), data...)
}

// FetchMeta resolves metadata for a batch of fids. Unknown fids report
// Exists == false rather than erroring.
func (s *Store) FetchMeta(ctx context.Context, fids []namespace.FileID) (map[namespace.FileID]namespace.ContentMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[namespace.FileID]namespace.ContentMeta, len(fids))
	for _, fid := range fids {
		data, ok := s.objects[fid]
		out[fid] = namespace.ContentMeta{Exists: ok, Length: int64(len(data))}
	}

	return out, nil
}

// Delete removes the object for fid. Unknown fids succeed.
func (s *Store) Delete(ctx context.Context, fid namespace.FileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, fid)
	return nil
}
