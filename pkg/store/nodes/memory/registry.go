package memory

import (
	"context"
	"maps"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// Domain registry and fid metadata side-store, backed by the same maps and
// mutex as the node table.

// ListActiveDomains returns every enabled domain id.
func (s *Store) ListActiveDomains(ctx context.Context) ([]namespace.DomainID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]namespace.DomainID, 0, len(s.domains))
	for id := range s.domains {
		out = append(out, id)
	}
	return out, nil
}

// Enable marks a domain as namespace-enabled. Idempotent.
func (s *Store) Enable(ctx context.Context, domain namespace.DomainID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.domains[domain] = struct{}{}
	return nil
}

// Disable removes a domain from the enabled set. Idempotent.
func (s *Store) Disable(ctx context.Context, domain namespace.DomainID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.domains, domain)
	return nil
}

// Get returns the attribute map for fid; empty map when none stored.
func (s *Store) Get(ctx context.Context, fid namespace.FileID) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	attrs, ok := s.meta[fid]
	if !ok {
		return map[string]string{}, nil
	}
	return maps.Clone(attrs), nil
}

// Set replaces the attribute map for fid.
func (s *Store) Set(ctx context.Context, fid namespace.FileID, attrs map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta[fid] = maps.Clone(attrs)
	return nil
}
