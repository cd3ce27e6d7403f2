package postgres

import (
	"context"
	"fmt"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// Domain registry and fid metadata side-store over their own tables.

// ListActiveDomains returns every enabled domain id.
func (s *Store) ListActiveDomains(ctx context.Context) ([]namespace.DomainID, error) {
	rows, err := s.pool.Query(ctx, `SELECT domain FROM namespace_domains`)
	if err != nil {
		return nil, fmt.Errorf("list active domains: %w", err)
	}
	defer rows.Close()

	var out []namespace.DomainID
	for rows.Next() {
		var id namespace.DomainID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active domains: %w", err)
	}

	return out, nil
}

// Enable marks a domain as namespace-enabled. Idempotent.
func (s *Store) Enable(ctx context.Context, domain namespace.DomainID) error {
	const query = `
		INSERT INTO namespace_domains (domain) VALUES ($1)
		ON CONFLICT (domain) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, domain); err != nil {
		return fmt.Errorf("enable domain: %w", err)
	}
	return nil
}

// Disable removes a domain from the enabled set. Idempotent.
func (s *Store) Disable(ctx context.Context, domain namespace.DomainID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM namespace_domains WHERE domain = $1`, domain); err != nil {
		return fmt.Errorf("disable domain: %w", err)
	}
	return nil
}

// Get returns the attribute map for fid; empty map when none stored.
func (s *Store) Get(ctx context.Context, fid namespace.FileID) (map[string]string, error) {
	attrs := map[string]string{}
	err := s.pool.QueryRow(ctx,
		`SELECT attrs FROM namespace_fid_meta WHERE fid = $1`, fid,
	).Scan(&attrs)
	if err != nil {
		if isNoRows(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("get fid meta: %w", err)
	}

	return attrs, nil
}

// Set replaces the attribute map for fid.
func (s *Store) Set(ctx context.Context, fid namespace.FileID, attrs map[string]string) error {
	const query = `
		INSERT INTO namespace_fid_meta (fid, attrs) VALUES ($1, $2)
		ON CONFLICT (fid) DO UPDATE SET attrs = EXCLUDED.attrs
	`
	if _, err := s.pool.Exec(ctx, query, fid, attrs); err != nil {
		return fmt.Errorf("set fid meta: %w", err)
	}
	return nil
}
