package namespace

import "context"

// DomainID identifies a namespace partition. All path resolution and name
// uniqueness is scoped per domain.
type DomainID int64

// NodeID identifies one node in the namespace tree. Ids are surrogate keys
// assigned by the node store on insert; the namespace root is the reserved
// id 0 and never exists as a stored row.
type NodeID int64

// FileID ("fid") is the opaque identifier of an object in the external
// content store; the unit the namespace ultimately resolves to.
type FileID int64

// RootID is the reserved id of the namespace root. Every domain shares the
// same root id; top-level entries have ParentID == RootID.
const RootID NodeID = 0

// Node is one entry in the namespace tree, keyed by (domain, parent, name).
//
// A node with a fid represents a file; a node without one is a directory.
// The data model does not forbid a node from having both a fid and children;
// listings treat any node with a fid as a file (see DESIGN.md).
//
// Nodes held by callers are snapshots. The node store is the sole mutator:
// after any mutation through another path the snapshot is stale and must be
// re-fetched.
type Node struct {
	// ID is the surrogate key assigned by the node store
	ID NodeID `json:"id"`

	// Domain is the namespace partition this node belongs to
	Domain DomainID `json:"domain"`

	// ParentID is the id of the containing node; RootID for top-level entries
	ParentID NodeID `json:"parent_id"`

	// Name is the path component (word characters, '-', '.')
	Name string `json:"name"`

	// FID references the content-store object for file nodes; nil for
	// directories
	FID *FileID `json:"fid,omitempty"`
}

// IsDir reports whether the node is a directory (carries no fid).
func (n *Node) IsDir() bool {
	return n.FID == nil
}

// IsRoot reports whether the node is the synthetic namespace root.
func (n *Node) IsRoot() bool {
	return n.ID == RootID
}

// rootNode synthesizes the in-memory root node for a domain. The root is
// never stored; it exists only as the starting point of traversal.
func rootNode(domain DomainID) *Node {
	return &Node{ID: RootID, Domain: domain, ParentID: RootID}
}

// Node loads a node by id. The root id resolves to a synthetic root node
// for the given domain without touching the store.
func (ns *Namespace) Node(ctx context.Context, domain DomainID, id NodeID) (*Node, error) {
	if id == RootID {
		return rootNode(domain), nil
	}

	node, err := ns.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}

	return node, nil
}
