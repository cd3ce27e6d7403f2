package namespace

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/trellisfs/trellis/internal/logger"
)

// Dispatch hooks
// ==============
//
// These are the fixed entry points a host request-dispatch framework invokes
// on its verbs. Each is a pure function of its typed arguments; the only
// ambient state is the activation cache (domain gating) and the
// pending-create registry that bridges intercept-create to on-stored.
//
// Create is a two-phase protocol with the object store in the middle:
//
//  1. InterceptCreate validates the logical path, rewrites the storage key
//     to an opaque token-derived key, and stashes the parsed path.
//  2. The host uploads the object under the storage key and learns its fid.
//  3. OnStored vivifies the directory chain, installs the file mapping,
//     arranges deletion of any fid the mapping replaced, and attaches the
//     mtime to the metadata side-store.
//
// Steps commit independently; an upload that is never confirmed leaves only
// a stashed path that expires, never a namespace node.

// pendingCreate is a stashed logical path awaiting store confirmation.
type pendingCreate struct {
	domain    DomainID
	dir       string
	name      string
	createdAt time.Time
}

// PendingUpload is the result of InterceptCreate: the token correlating the
// later on-stored call and the rewritten key the host hands to the object
// store.
type PendingUpload struct {
	// Token correlates OnStored with this intercepted create
	Token string `json:"token"`

	// StorageKey is the opaque key the object is uploaded under
	StorageKey string `json:"storage_key"`
}

// checkActive gates an operation on the domain's activation state.
func (ns *Namespace) checkActive(ctx context.Context, domain DomainID) error {
	if !ns.activation.IsActive(ctx, domain) {
		return &Error{
			Code:    CodeDomainInactive,
			Message: fmt.Sprintf("domain %d does not have the namespace feature enabled", domain),
		}
	}
	return nil
}

// TranslatePath resolves a full path to the fid backing it. Hosts call this
// before generic file-info, fetch, debug, and delete verbs to turn the
// caller's path into the storage layer's key.
func (ns *Namespace) TranslatePath(ctx context.Context, domain DomainID, path string) (FileID, error) {
	if err := ns.checkActive(ctx, domain); err != nil {
		return 0, err
	}

	dir, name, err := SplitPath(path)
	if err != nil {
		return 0, err
	}

	parent, err := ns.LoadPath(ctx, domain, dir)
	if err != nil {
		return 0, err
	}

	return ns.GetFileMapping(ctx, domain, parent.ID, name)
}

// InterceptCreate validates a create's logical path and stashes it pending
// store confirmation, returning the opaque storage key the host should
// upload under.
func (ns *Namespace) InterceptCreate(ctx context.Context, domain DomainID, path string) (*PendingUpload, error) {
	if err := ns.checkActive(ctx, domain); err != nil {
		return nil, err
	}

	dir, name, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()

	ns.pendingMu.Lock()
	ns.sweepPendingLocked()
	ns.pending[token] = pendingCreate{
		domain:    domain,
		dir:       dir,
		name:      name,
		createdAt: time.Now(),
	}
	ns.pendingMu.Unlock()

	return &PendingUpload{
		Token:      token,
		StorageKey: fmt.Sprintf("trellis/%d/%s", domain, token),
	}, nil
}

// OnStored confirms an intercepted create once the object store has accepted
// the upload and assigned it a fid. It vivifies the directory chain, installs
// the mapping, deletes the fid the mapping replaced (after the swap, so the
// path never resolves to nothing), and stamps the upload time into the
// metadata side-store.
//
// Returns:
//   - NodeID: The id of the file node now mapping the path
//   - error: CodeNotFound if the token is unknown or expired
func (ns *Namespace) OnStored(ctx context.Context, token string, fid FileID) (NodeID, error) {
	ns.pendingMu.Lock()
	pc, ok := ns.pending[token]
	if ok {
		delete(ns.pending, token)
	}
	ns.pendingMu.Unlock()

	if !ok || time.Since(pc.createdAt) > ns.pendingTTL {
		return 0, &Error{Code: CodeNotFound, Message: "unknown or expired upload token", Path: token}
	}

	parent, err := ns.VivifyPath(ctx, pc.domain, pc.dir)
	if err != nil {
		return 0, err
	}

	nodeID, oldFID, err := ns.SetFileMapping(ctx, pc.domain, parent.ID, pc.name, fid)
	if err != nil {
		return 0, err
	}

	if oldFID != nil && *oldFID != fid {
		if err := ns.content.Delete(ctx, *oldFID); err != nil {
			// The mapping already points at the new fid; a leaked old object
			// is garbage, not corruption.
			logger.Warn("on-stored: deleting replaced fid %d failed: %v", *oldFID, err)
		}
	}

	mtime := strconv.FormatInt(time.Now().Unix(), 10)
	if err := ns.meta.Set(ctx, fid, map[string]string{MetaKeyMTime: mtime}); err != nil {
		logger.Warn("on-stored: attaching mtime for fid %d failed: %v", fid, err)
	}

	return nodeID, nil
}

// DeletePath removes the mapping at a full path and arranges deletion of its
// object from the content store.
//
// Returns:
//   - *FileID: The fid the mapping carried (nil for a directory node)
//   - error: CodeNotFound if the path does not resolve, CodeHasChildren if
//     the node still has children
func (ns *Namespace) DeletePath(ctx context.Context, domain DomainID, path string) (*FileID, error) {
	if err := ns.checkActive(ctx, domain); err != nil {
		return nil, err
	}

	dir, name, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	parent, err := ns.LoadPath(ctx, domain, dir)
	if err != nil {
		return nil, err
	}

	fid, err := ns.DeleteFileMapping(ctx, domain, parent.ID, name)
	if err != nil {
		return nil, err
	}

	if fid != nil {
		if err := ns.content.Delete(ctx, *fid); err != nil {
			logger.Warn("delete: removing fid %d from content store failed: %v", *fid, err)
		}
	}

	return fid, nil
}

// ListPath lists the directory at path ("/" for the domain root).
func (ns *Namespace) ListPath(ctx context.Context, domain DomainID, path string) ([]DirEntry, error) {
	if err := ns.checkActive(ctx, domain); err != nil {
		return nil, err
	}

	node, err := ns.LoadPath(ctx, domain, path)
	if err != nil {
		return nil, err
	}

	return ns.ListDirectory(ctx, domain, node.ID)
}

// RenamePath renames oldPath to newPath, vivifying the destination
// directory chain. See Rename for semantics.
func (ns *Namespace) RenamePath(ctx context.Context, domain DomainID, oldPath, newPath string) error {
	if err := ns.checkActive(ctx, domain); err != nil {
		return err
	}

	oldDir, oldName, err := SplitPath(oldPath)
	if err != nil {
		return err
	}
	newDir, newName, err := SplitPath(newPath)
	if err != nil {
		return err
	}

	return ns.Rename(ctx, domain, oldDir, oldName, newDir, newName)
}

// EnableDomain turns the namespace feature on for a domain and expires the
// activation snapshot so the change is visible locally at once. Other
// workers observe it within one refresh interval.
func (ns *Namespace) EnableDomain(ctx context.Context, domain DomainID) error {
	if err := ns.registry.Enable(ctx, domain); err != nil {
		return fmt.Errorf("enabling domain %d: %w", domain, err)
	}
	ns.activation.Invalidate()
	return nil
}

// DisableDomain turns the namespace feature off for a domain.
func (ns *Namespace) DisableDomain(ctx context.Context, domain DomainID) error {
	if err := ns.registry.Disable(ctx, domain); err != nil {
		return fmt.Errorf("disabling domain %d: %w", domain, err)
	}
	ns.activation.Invalidate()
	return nil
}

// sweepPendingLocked drops stashed creates whose confirmation never came.
// Caller holds pendingMu.
func (ns *Namespace) sweepPendingLocked() {
	cutoff := time.Now().Add(-ns.pendingTTL)
	for token, pc := range ns.pending {
		if pc.createdAt.Before(cutoff) {
			delete(ns.pending, token)
		}
	}
}
