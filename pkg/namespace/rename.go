package namespace

import (
	"context"
	"fmt"
)

// Rename moves the node (domain, oldDir, oldName) to (newDir, newName),
// vivifying the destination directory first.
//
// The operation is three independent store interactions with no cross-step
// locking: source lookup, destination vivification, and a single update of
// the node's parent and name. A crash or concurrent interleaving between
// steps can leave a vivified-but-empty destination directory behind, which
// is non-corrupting and tolerated; it is never rolled back.
//
// A rename never clobbers: if the destination name already exists, the final
// update is rejected by the uniqueness constraint and surfaced as
// CodeRenameFailed, with both the source and the pre-existing destination
// node unchanged.
//
// Parameters:
//   - oldDir, newDir: directory prefixes as produced by SplitPath
//   - oldName, newName: leaf names
//
// Returns:
//   - error: CodeNotFound if the source path or node is missing,
//     CodeInvalidPath if newName is not a legal component,
//     CodeRenameFailed on destination collision or update failure
func (ns *Namespace) Rename(ctx context.Context, domain DomainID, oldDir, oldName, newDir, newName string) error {
	if !ValidName(newName) {
		return NewInvalidPath(newName, "illegal characters in name")
	}

	oldParent, err := ns.LoadPath(ctx, domain, oldDir)
	if err != nil {
		return err
	}

	node, err := ns.store.FindChild(ctx, domain, oldParent.ID, oldName)
	if err != nil {
		return err
	}

	newParent, err := ns.VivifyPath(ctx, domain, newDir)
	if err != nil {
		return fmt.Errorf("vivifying rename destination %q: %w", newDir, err)
	}

	upd := NodeUpdate{
		SetParent: true,
		ParentID:  newParent.ID,
		SetName:   true,
		Name:      newName,
	}
	if err := ns.store.UpdateNode(ctx, node.ID, upd); err != nil {
		if IsDuplicate(err) {
			return &Error{
				Code:    CodeRenameFailed,
				Message: "destination name already exists",
				Path:    newDir + newName,
			}
		}
		return &Error{
			Code:    CodeRenameFailed,
			Message: fmt.Sprintf("moving node %d failed: %v", node.ID, err),
			Path:    newDir + newName,
		}
	}

	return nil
}
