package namespace

import (
	"context"
	"fmt"
)

// File mappings
// =============
//
// A mapping is the association between a (domain, parent, name) node and its
// fid. SetFileMapping is the sole path by which a node transitions from
// directory-only to file-bearing, or by which a file's fid is replaced on
// re-upload.
//
// Old-fid cleanup is deliberately the caller's job, and deliberately ordered
// after the mapping mutation: deleting the old object first would open a
// window where the path resolves to no fid at all. The hooks layer follows
// this ordering (see hooks.go).

// SetFileMapping points the child of parentID named name at fid, creating
// the node if it does not exist and overwriting its fid if it does.
//
// Returns:
//   - NodeID: The id of the created or updated node
//   - *FileID: The previously mapped fid, if the node existed with one; the
//     caller must arrange its deletion from the content store after this
//     call returns
//   - error: CodeInvalidPath if name is not a legal component, or an
//     infrastructure error
func (ns *Namespace) SetFileMapping(ctx context.Context, domain DomainID, parentID NodeID, name string, fid FileID) (NodeID, *FileID, error) {
	if !ValidName(name) {
		return 0, nil, NewInvalidPath(name, "illegal characters in name")
	}

	existing, err := ns.store.FindChild(ctx, domain, parentID, name)
	switch {
	case err == nil:
		oldFID := existing.FID
		upd := NodeUpdate{SetFID: true, FID: &fid}
		if err := ns.store.UpdateNode(ctx, existing.ID, upd); err != nil {
			return 0, nil, fmt.Errorf("overwriting fid of node %d: %w", existing.ID, err)
		}
		return existing.ID, oldFID, nil

	case IsNotFound(err):
		id, err := ns.store.InsertChild(ctx, domain, parentID, name, &fid)
		if err == nil {
			return id, nil, nil
		}
		if !IsDuplicate(err) {
			return 0, nil, fmt.Errorf("inserting mapping %q under node %d: %w", name, parentID, err)
		}
		// Concurrent create beat us to the row; fall back to an overwrite.
		raced, ferr := ns.store.FindChild(ctx, domain, parentID, name)
		if ferr != nil {
			return 0, nil, fmt.Errorf("re-reading %q after duplicate insert: %w", name, ferr)
		}
		oldFID := raced.FID
		if err := ns.store.UpdateNode(ctx, raced.ID, NodeUpdate{SetFID: true, FID: &fid}); err != nil {
			return 0, nil, fmt.Errorf("overwriting fid of node %d: %w", raced.ID, err)
		}
		return raced.ID, oldFID, nil

	default:
		return 0, nil, fmt.Errorf("looking up mapping %q under node %d: %w", name, parentID, err)
	}
}

// GetFileMapping resolves the child of parentID named name to its fid.
//
// Returns:
//   - FileID: The mapped fid
//   - error: CodeNotFound if no such child exists or the child is a
//     directory (a directory has no mapping)
func (ns *Namespace) GetFileMapping(ctx context.Context, domain DomainID, parentID NodeID, name string) (FileID, error) {
	node, err := ns.store.FindChild(ctx, domain, parentID, name)
	if err != nil {
		return 0, err
	}
	if node.FID == nil {
		return 0, NewNotFound(name)
	}
	return *node.FID, nil
}

// DeleteFileMapping removes the child of parentID named name.
//
// Deletion does not cascade: a node that still has children is refused with
// CodeHasChildren rather than orphaning its subtree.
//
// Returns:
//   - *FileID: The fid the node carried, if any; the caller should arrange
//     its deletion from the content store
//   - error: CodeNotFound if no such child, CodeHasChildren if the node has
//     children
func (ns *Namespace) DeleteFileMapping(ctx context.Context, domain DomainID, parentID NodeID, name string) (*FileID, error) {
	node, err := ns.store.FindChild(ctx, domain, parentID, name)
	if err != nil {
		return nil, err
	}

	children, err := ns.store.ListChildren(ctx, domain, node.ID)
	if err != nil {
		return nil, fmt.Errorf("probing children of node %d: %w", node.ID, err)
	}
	if len(children) > 0 {
		return nil, &Error{Code: CodeHasChildren, Message: "node still has children", Path: name}
	}

	if err := ns.store.DeleteNode(ctx, node.ID); err != nil {
		return nil, fmt.Errorf("deleting node %d: %w", node.ID, err)
	}

	return node.FID, nil
}
