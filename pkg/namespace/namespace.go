package namespace

import (
	"sync"
	"time"
)

// Namespace is the path namespace engine: it layers a hierarchical,
// UNIX-style tree of directories and files over a flat content store that
// only knows opaque numeric fids.
//
// The engine holds no in-process locks across store calls and runs every
// operation as a short sequence of independently-committing store
// interactions. The only serialization point is the node store's uniqueness
// constraint on (domain, parentID, name); see Resolve for how insert races
// are absorbed.
//
// A single Namespace is safe for concurrent use by any number of
// uncoordinated callers.
type Namespace struct {
	store      NodeStore
	content    ContentStore
	meta       MetaStore
	registry   DomainRegistry
	activation *ActivationCache

	// pending stashes intercepted creates until the object store confirms
	// them (see hooks.go)
	pendingMu  sync.Mutex
	pending    map[string]pendingCreate
	pendingTTL time.Duration
}

// DefaultPendingTTL is how long an intercepted create may wait for its
// on-stored confirmation before the stashed logical path is dropped.
const DefaultPendingTTL = 1 * time.Hour

// New creates a namespace engine over the given collaborators.
//
// Parameters:
//   - store: node table primitives (memory, badger, or postgres backend)
//   - content: external content store (metadata fetch + deletion only)
//   - meta: fid-keyed metadata side-store
//   - registry: administrative enabled-domain store
//   - activation: domain activation cache gating every path operation
func New(store NodeStore, content ContentStore, meta MetaStore, registry DomainRegistry, activation *ActivationCache) *Namespace {
	return &Namespace{
		store:      store,
		content:    content,
		meta:       meta,
		registry:   registry,
		activation: activation,
		pending:    make(map[string]pendingCreate),
		pendingTTL: DefaultPendingTTL,
	}
}

// SetPendingTTL overrides how long intercepted creates wait for their
// on-stored confirmation. Call before serving traffic.
func (ns *Namespace) SetPendingTTL(ttl time.Duration) {
	if ttl > 0 {
		ns.pendingTTL = ttl
	}
}
