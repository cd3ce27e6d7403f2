package postgres

import (
	"context"
	"fmt"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// FindChild fetches the child of parentID named name within domain.
func (s *Store) FindChild(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID, name string) (*namespace.Node, error) {
	const query = `
		SELECT id, domain, parent_id, name, fid
		FROM namespace_nodes
		WHERE domain = $1 AND parent_id = $2 AND name = $3
	`

	var node namespace.Node
	err := s.pool.QueryRow(ctx, query, domain, parentID, name).Scan(
		&node.ID, &node.Domain, &node.ParentID, &node.Name, &node.FID,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, namespace.NewNotFound(name)
		}
		return nil, fmt.Errorf("find child: %w", err)
	}

	return &node, nil
}

// GetNode fetches a node by id.
func (s *Store) GetNode(ctx context.Context, id namespace.NodeID) (*namespace.Node, error) {
	const query = `
		SELECT id, domain, parent_id, name, fid
		FROM namespace_nodes
		WHERE id = $1
	`

	var node namespace.Node
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&node.ID, &node.Domain, &node.ParentID, &node.Name, &node.FID,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, &namespace.Error{Code: namespace.CodeNotFound, Message: "no such node id"}
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// InsertChild inserts a new node; the UNIQUE constraint turns duplicate
// names into CodeDuplicate.
func (s *Store) InsertChild(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID, name string, fid *namespace.FileID) (namespace.NodeID, error) {
	const query = `
		INSERT INTO namespace_nodes (domain, parent_id, name, fid)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id namespace.NodeID
	err := s.pool.QueryRow(ctx, query, domain, parentID, name, fid).Scan(&id)
	if err != nil {
		if isDuplicate(err) {
			return 0, namespace.NewDuplicate(name)
		}
		return 0, fmt.Errorf("insert child: %w", err)
	}

	return id, nil
}

// UpdateNode applies the set fields of upd in a single UPDATE statement.
func (s *Store) UpdateNode(ctx context.Context, id namespace.NodeID, upd namespace.NodeUpdate) error {
	const query = `
		UPDATE namespace_nodes SET
			parent_id = CASE WHEN $2 THEN $3 ELSE parent_id END,
			name      = CASE WHEN $4 THEN $5 ELSE name      END,
			fid       = CASE WHEN $6 THEN $7 ELSE fid       END
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id,
		upd.SetParent, upd.ParentID,
		upd.SetName, upd.Name,
		upd.SetFID, upd.FID,
	)
	if err != nil {
		if isDuplicate(err) {
			return namespace.NewDuplicate(upd.Name)
		}
		return fmt.Errorf("update node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &namespace.Error{Code: namespace.CodeNotFound, Message: "no such node id"}
	}

	return nil
}

// DeleteNode removes a node row.
func (s *Store) DeleteNode(ctx context.Context, id namespace.NodeID) error {
	const query = `DELETE FROM namespace_nodes WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &namespace.Error{Code: namespace.CodeNotFound, Message: "no such node id"}
	}

	return nil
}

// ListChildren returns the immediate children of parentID. Ordering follows
// the index, which callers must treat as unspecified.
func (s *Store) ListChildren(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID) ([]namespace.Node, error) {
	const query = `
		SELECT id, domain, parent_id, name, fid
		FROM namespace_nodes
		WHERE domain = $1 AND parent_id = $2
	`

	rows, err := s.pool.Query(ctx, query, domain, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var out []namespace.Node
	for rows.Next() {
		var node namespace.Node
		if err := rows.Scan(&node.ID, &node.Domain, &node.ParentID, &node.Name, &node.FID); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		out = append(out, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	return out, nil
}
