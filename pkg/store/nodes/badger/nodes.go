package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/trellisfs/trellis/pkg/namespace"
)

// FindChild fetches the child of parentID named name within domain.
func (s *Store) FindChild(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID, name string) (*namespace.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var node *namespace.Node
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := readChildID(txn, domain, parentID, name)
		if err != nil {
			return err
		}
		node, err = readNode(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

// GetNode fetches a node row by id.
func (s *Store) GetNode(ctx context.Context, id namespace.NodeID) (*namespace.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var node *namespace.Node
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		node, err = readNode(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

// InsertChild inserts a new node. The child-index probe inside the
// transaction plus Badger's commit-time conflict detection together enforce
// the uniqueness constraint; both failure shapes come back as CodeDuplicate.
func (s *Store) InsertChild(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID, name string, fid *namespace.FileID) (namespace.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	raw, err := s.nextID()
	if err != nil {
		return 0, err
	}
	id := namespace.NodeID(raw)

	node := &namespace.Node{ID: id, Domain: domain, ParentID: parentID, Name: name}
	if fid != nil {
		v := *fid
		node.FID = &v
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		childKey := keyChild(domain, parentID, name)

		_, err := txn.Get(childKey)
		if err == nil {
			return namespace.NewDuplicate(name)
		}
		if err != badger.ErrKeyNotFound {
			return fmt.Errorf("probing child index: %w", err)
		}

		data, err := encodeNode(node)
		if err != nil {
			return err
		}
		if err := txn.Set(keyNode(id), data); err != nil {
			return err
		}
		return txn.Set(childKey, encodeNodeID(id))
	})
	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			// A concurrent transaction touched the same index key first.
			return 0, namespace.NewDuplicate(name)
		}
		return 0, err
	}

	return id, nil
}

// UpdateNode applies the set fields of upd in one transaction, moving the
// child-index entry when parent or name change.
func (s *Store) UpdateNode(ctx context.Context, id namespace.NodeID, upd namespace.NodeUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		node, err := readNode(txn, id)
		if err != nil {
			return err
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
			newKey := keyChild(node.Domain, newParent, newName)
			if _, err := txn.Get(newKey); err == nil {
				return namespace.NewDuplicate(newName)
			} else if err != badger.ErrKeyNotFound {
				return fmt.Errorf("probing destination index: %w", err)
			}

			if err := txn.Delete(keyChild(node.Domain, node.ParentID, node.Name)); err != nil {
				return err
			}
			if err := txn.Set(newKey, encodeNodeID(id)); err != nil {
				return err
			}
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

		data, err := encodeNode(node)
		if err != nil {
			return err
		}
		return txn.Set(keyNode(id), data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return namespace.NewDuplicate("")
	}
	return err
}

// DeleteNode removes a node row and its child-index entry.
func (s *Store) DeleteNode(ctx context.Context, id namespace.NodeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		node, err := readNode(txn, id)
		if err != nil {
			return err
		}

		if err := txn.Delete(keyNode(id)); err != nil {
			return err
		}
		return txn.Delete(keyChild(node.Domain, node.ParentID, node.Name))
	})
}

// ListChildren scans the contiguous child-index range of (domain, parentID)
// and materializes each node row.
func (s *Store) ListChildren(ctx context.Context, domain namespace.DomainID, parentID namespace.NodeID) ([]namespace.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []namespace.Node
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyChildPrefix(domain, parentID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var id namespace.NodeID
			err := it.Item().Value(func(val []byte) error {
				var err error
				id, err = decodeNodeID(val)
				return err
			})
			if err != nil {
				return err
			}

			node, err := readNode(txn, id)
			if err != nil {
				return fmt.Errorf("child index points at unreadable node %d: %w", id, err)
			}
			out = append(out, *node)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// readChildID resolves a child-index key to a node id within txn.
func readChildID(txn *badger.Txn, domain namespace.DomainID, parentID namespace.NodeID, name string) (namespace.NodeID, error) {
	item, err := txn.Get(keyChild(domain, parentID, name))
	if err == badger.ErrKeyNotFound {
		return 0, namespace.NewNotFound(name)
	}
	if err != nil {
		return 0, err
	}

	var id namespace.NodeID
	err = item.Value(func(val []byte) error {
		var verr error
		id, verr = decodeNodeID(val)
		return verr
	})
	return id, err
}

// readNode loads and decodes a node row within txn.
func readNode(txn *badger.Txn, id namespace.NodeID) (*namespace.Node, error) {
	item, err := txn.Get(keyNode(id))
	if err == badger.ErrKeyNotFound {
		return nil, &namespace.Error{Code: namespace.CodeNotFound, Message: "no such node id"}
	}
	if err != nil {
		return nil, err
	}

	var node *namespace.Node
	err = item.Value(func(val []byte) error {
		var verr error
		node, verr = decodeNode(val)
		return verr
	})
	return node, err
}
