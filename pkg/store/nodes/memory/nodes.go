package memory

import (
	"context"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// FindChild fetches the child of parentID named name within domain.
func (s *Store) FindChild(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID, name string) (*namespace.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.children[childKey{domain, parentID, name}]
	if !ok {
		return nil, namespace.NewNotFound(name)
	}

	node := s.nodes[id]
	return cloneNode(node), nil
}

// GetNode fetches a node by id.
func (s *Store) GetNode(ctx context.Context, id namespace.NodeID) (*namespace.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, &namespace.Error{Code: namespace.CodeNotFound, Message: "no such node id"}
	}

	return cloneNode(node), nil
}

// InsertChild inserts a new node, enforcing the (domain, parent, name)
// uniqueness constraint.
func (s *Store) InsertChild(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID, name string, fid *namespace.FileID) (namespace.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := childKey{domain, parentID, name}
	if _, exists := s.children[key]; exists {
		return 0, namespace.NewDuplicate(name)
	}

	s.nextID++
	id := s.nextID

	node := namespace.Node{ID: id, Domain: domain, ParentID: parentID, Name: name}
	if fid != nil {
		v := *fid
		node.FID = &v
	}

	s.nodes[id] = node
	s.children[key] = id

	return id, nil
}

// UpdateNode applies the set fields of upd to the node in one mutation.
func (s *Store) UpdateNode(ctx context.Context, id namespace.NodeID, upd namespace.NodeUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &namespace.Error{Code: namespace.CodeNotFound, Message: "no such node id"}
	}

	newParent := node.ParentID
	newName := node.Name
	if upd.SetParent {
		newParent = upd.ParentID
	}
	if upd.SetName {
		newName = upd.Name
	}

	if newParent != node.ParentID || newName != node.Name {
		newKey := childKey{node.Domain, newParent, newName}
		if _, exists := s.children[newKey]; exists {
			return namespace.NewDuplicate(newName)
		}
		delete(s.children, childKey{node.Domain, node.ParentID, node.Name})
		s.children[newKey] = id
		node.ParentID = newParent
		node.Name = newName
	}

	if upd.SetFID {
		if upd.FID == nil {
			node.FID = nil
		} else {
			v := *upd.FID
			node.FID = &v
		}
	}

	s.nodes[id] = node
	return nil
}

// DeleteNode removes a node row and its child-index entry.
func (s *Store) DeleteNode(ctx context.Context, id namespace.NodeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &namespace.Error{Code: namespace.CodeNotFound, Message: "no such node id"}
	}

	delete(s.nodes, id)
	delete(s.children, childKey{node.Domain, node.ParentID, node.Name})
	return nil
}

// ListChildren returns the immediate children of parentID (map order).
func (s *Store) ListChildren(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID) ([]namespace.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []namespace.Node
	for key, id := range s.children {
		if key.domain == domain && key.parent == parentID {
			out = append(out, *cloneNode(s.nodes[id]))
		}
	}

	return out, nil
}

// cloneNode copies a node so callers never alias store-owned memory.
func cloneNode(n namespace.Node) *namespace.Node {
	out := n
	if n.FID != nil {
		v := *n.FID
		out.FID = &v
	}
	return &out
}
