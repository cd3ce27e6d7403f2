package namespace

import (
	"context"
	"fmt"

	"github.com/trellisfs/trellis/internal/logger"
)

// Path traversal
// ==============
//
// Resolution walks a '/'-separated path one component at a time, starting at
// the synthetic root (id 0). The walk is a plain loop with the current node
// as accumulator: parent ids strictly deepen top-down, so cycles cannot be
// constructed through this API and stack depth is never a concern.
//
// Vivification (creating missing intermediate directories) races with other
// callers doing the same. The node store's uniqueness constraint is the only
// arbiter: when an insert is rejected as a duplicate, someone else created
// the component first, and the walk re-reads the child and continues with
// the winner's node. No locks are held across store calls.

// Resolve resolves a '/'-separated directory path to its terminal node.
//
// With vivify false, a missing component fails the walk with CodeNotFound.
// With vivify true, missing components are created as directory nodes (no
// fid) on the way down.
//
// An empty or "/" path resolves to the synthetic root node, which is a valid
// result, not an error.
//
// Parameters:
//   - domain: namespace partition to resolve within
//   - path: '/'-separated components; normally a SplitPath directory prefix
//   - vivify: create missing intermediate directories
//
// Returns:
//   - *Node: The terminal node (possibly the root)
//   - error: CodeNotFound on a missing component when vivify is false,
//     CodeUnavailable if the store misbehaves, or an infrastructure error
func (ns *Namespace) Resolve(ctx context.Context, domain DomainID, path string, vivify bool) (*Node, error) {
	current := rootNode(domain)

	for _, component := range splitComponents(path) {
		next, err := ns.store.FindChild(ctx, domain, current.ID, component)
		if err == nil {
			current = next
			continue
		}
		if !IsNotFound(err) {
			return nil, fmt.Errorf("resolving %q under node %d: %w", component, current.ID, err)
		}

		if !vivify {
			return nil, NewNotFound(path)
		}

		current, err = ns.vivifyComponent(ctx, domain, current.ID, component)
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

// LoadPath resolves a directory path read-only. Used by lookups, deletes,
// listings, and path-to-fid translation.
func (ns *Namespace) LoadPath(ctx context.Context, domain DomainID, path string) (*Node, error) {
	return ns.Resolve(ctx, domain, path, false)
}

// VivifyPath resolves a directory path, creating missing intermediate
// directories. Used by create and by the rename destination.
func (ns *Namespace) VivifyPath(ctx context.Context, domain DomainID, path string) (*Node, error) {
	return ns.Resolve(ctx, domain, path, true)
}

// vivifyComponent inserts one missing directory node, absorbing the
// concurrent-creation race: a duplicate rejection means another caller won
// the insert, so the child is re-read and adopted. If the re-read still
// finds nothing the store is inconsistent and the walk fails hard.
func (ns *Namespace) vivifyComponent(ctx context.Context, domain DomainID, parentID NodeID, name string) (*Node, error) {
	id, err := ns.store.InsertChild(ctx, domain, parentID, name, nil)
	if err == nil {
		return &Node{ID: id, Domain: domain, ParentID: parentID, Name: name}, nil
	}
	if !IsDuplicate(err) {
		return nil, fmt.Errorf("vivifying %q under node %d: %w", name, parentID, err)
	}

	// Lost the insert race; the winner's row must be visible now.
	node, err := ns.store.FindChild(ctx, domain, parentID, name)
	if err == nil {
		return node, nil
	}
	if IsNotFound(err) {
		logger.Error("vivify: duplicate insert of %q under node %d but re-read found nothing", name, parentID)
		return nil, &Error{
			Code:    CodeUnavailable,
			Message: "node store inconsistency: duplicate insert but child unreadable",
			Path:    name,
		}
	}

	return nil, fmt.Errorf("re-reading %q under node %d after duplicate: %w", name, parentID, err)
}
