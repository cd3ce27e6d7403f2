package namespace

import (
	"context"
	"time"
)

// ============================================================================
// NodeStore Interface
// ============================================================================

// NodeStore provides CRUD primitives over the node table.
//
// The store is the only serialization point in the design: the composite
// uniqueness constraint on (domain, parentID, name) is the race-resolution
// primitive the traversal engine relies on. Implementations must therefore
// report duplicate-name inserts distinguishably from other failures, as a
// *Error with CodeDuplicate.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// No operation may hold locks across calls; each call commits independently.
type NodeStore interface {
	// FindChild fetches the child of parentID named name within domain.
	//
	// Returns:
	//   - *Node: The child node
	//   - error: CodeNotFound if no such child, or an infrastructure error
	FindChild(ctx context.Context, domain DomainID, parentID NodeID, name string) (*Node, error)

	// GetNode fetches a node by id.
	//
	// Returns:
	//   - *Node: The node
	//   - error: CodeNotFound if the id does not exist
	GetNode(ctx context.Context, id NodeID) (*Node, error)

	// InsertChild inserts a new node under parentID. A nil fid creates a
	// directory node, a non-nil fid a file node.
	//
	// Returns:
	//   - NodeID: The id assigned to the new node
	//   - error: CodeDuplicate if (domain, parentID, name) already exists,
	//     or an infrastructure error
	InsertChild(ctx context.Context, domain DomainID, parentID NodeID, name string, fid *FileID) (NodeID, error)

	// UpdateNode applies the set fields of upd to the node with the given id
	// in a single mutation.
	//
	// Returns:
	//   - error: CodeNotFound if the id does not exist, CodeDuplicate if a
	//     parent/name change collides with an existing sibling
	UpdateNode(ctx context.Context, id NodeID, upd NodeUpdate) error

	// DeleteNode removes the node with the given id. It does not cascade.
	//
	// Returns:
	//   - error: CodeNotFound if the id does not exist
	DeleteNode(ctx context.Context, id NodeID) error

	// ListChildren returns the immediate children of parentID within domain.
	// Ordering is store-determined. An empty directory yields an empty slice,
	// not an error.
	ListChildren(ctx context.Context, domain DomainID, parentID NodeID) ([]Node, error)

	// Healthcheck verifies the store can serve requests.
	Healthcheck(ctx context.Context) error
}

// NodeUpdate selects which node fields UpdateNode modifies. Only fields with
// their Set flag raised are touched; the rest keep their stored values.
type NodeUpdate struct {
	// SetParent moves the node under ParentID
	SetParent bool
	ParentID  NodeID

	// SetName renames the node to Name
	SetName bool
	Name    string

	// SetFID overwrites the node's fid with FID (nil demotes to directory)
	SetFID bool
	FID    *FileID
}

// ============================================================================
// Collaborator Contracts
// ============================================================================

// DomainRegistry is the administrative store of domains that have the
// namespace feature enabled. Consumed by the activation cache; reads go
// through the cache, never directly to the registry on the request path.
type DomainRegistry interface {
	// ListActiveDomains returns every enabled domain id.
	ListActiveDomains(ctx context.Context) ([]DomainID, error)

	// Enable turns the namespace feature on for a domain. Idempotent.
	Enable(ctx context.Context, domain DomainID) error

	// Disable turns the namespace feature off for a domain. Idempotent.
	Disable(ctx context.Context, domain DomainID) error
}

// ContentMeta describes one object in the external content store.
type ContentMeta struct {
	// Exists reports whether the store still holds the object. Mappings
	// whose fid no longer exists are stale and dropped from listings.
	Exists bool

	// Length is the object size in bytes (0 when Exists is false)
	Length int64
}

// ContentStore is the consumed contract of the external content/object
// store. The namespace never reads or writes object bytes; it only asks for
// existence/size metadata and arranges deletion of replaced or unmapped
// fids.
type ContentStore interface {
	// FetchMeta resolves metadata for a batch of fids in one round trip.
	// Every requested fid appears in the result map; unknown fids map to a
	// ContentMeta with Exists == false.
	FetchMeta(ctx context.Context, fids []FileID) (map[FileID]ContentMeta, error)

	// Delete removes the object for fid. Deleting an unknown fid succeeds.
	Delete(ctx context.Context, fid FileID) error
}

// MetaStore is the fid-keyed metadata side-store. The namespace treats its
// content as opaque beyond the mtime attribute attached on upload and passed
// through to listings.
type MetaStore interface {
	// Get returns the attribute map for fid. A fid with no attributes yields
	// an empty map, not an error.
	Get(ctx context.Context, fid FileID) (map[string]string, error)

	// Set replaces the attribute map for fid.
	Set(ctx context.Context, fid FileID, attrs map[string]string) error
}

// MetaKeyMTime is the side-store attribute carrying a file's modification
// time as Unix seconds in decimal.
const MetaKeyMTime = "mtime"

// DirEntry is one child in a directory listing, annotated as file or
// directory and, for files, merged with content-store metadata.
type DirEntry struct {
	// NodeID is the child's node id
	NodeID NodeID `json:"node_id"`

	// Name is the child's path component
	Name string `json:"name"`

	// IsDir reports whether the child is a directory (no fid)
	IsDir bool `json:"is_dir"`

	// FID is the child's fid for file entries, nil for directories
	FID *FileID `json:"fid,omitempty"`

	// Size is the object length reported by the content store (files only)
	Size int64 `json:"size"`

	// MTime is the modification time from the metadata side-store; zero when
	// the side-store has no mtime for the fid
	MTime time.Time `json:"mtime,omitzero"`
}
