package namespace

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/trellisfs/trellis/internal/logger"
)

// ListDirectory returns the immediate children of a resolved directory node,
// each annotated as file (has fid) or directory (no fid).
//
// File children are merged with content-store metadata fetched in a single
// batched round trip rather than one call per child. A fid the content store
// reports as non-existent is a stale mapping and its entry is excluded from
// the result. Modification times come from the metadata side-store; a
// missing or unparsable mtime leaves the entry's MTime zero rather than
// failing the listing.
//
// Ordering is store-determined and unspecified; callers needing stable order
// sort by name themselves. The listing is not paginated.
func (ns *Namespace) ListDirectory(ctx context.Context, domain DomainID, nodeID NodeID) ([]DirEntry, error) {
	children, err := ns.store.ListChildren(ctx, domain, nodeID)
	if err != nil {
		return nil, fmt.Errorf("listing children of node %d: %w", nodeID, err)
	}

	fids := make([]FileID, 0, len(children))
	for i := range children {
		if children[i].FID != nil {
			fids = append(fids, *children[i].FID)
		}
	}

	var metas map[FileID]ContentMeta
	if len(fids) > 0 {
		metas, err = ns.content.FetchMeta(ctx, fids)
		if err != nil {
			return nil, fmt.Errorf("fetching content meta for %d fids: %w", len(fids), err)
		}
	}

	entries := make([]DirEntry, 0, len(children))
	for i := range children {
		child := &children[i]

		entry := DirEntry{
			NodeID: child.ID,
			Name:   child.Name,
			IsDir:  child.FID == nil,
			FID:    child.FID,
		}

		if child.FID != nil {
			meta := metas[*child.FID]
			if !meta.Exists {
				// Stale mapping: the object is gone from the content store.
				continue
			}
			entry.Size = meta.Length
			entry.MTime = ns.fidMTime(ctx, *child.FID)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// fidMTime reads the mtime attribute for fid from the side-store. Side-store
// trouble degrades the listing (zero MTime) instead of failing it.
func (ns *Namespace) fidMTime(ctx context.Context, fid FileID) time.Time {
	attrs, err := ns.meta.Get(ctx, fid)
	if err != nil {
		logger.Warn("listing: side-store get for fid %d failed: %v", fid, err)
		return time.Time{}
	}

	raw, ok := attrs[MetaKeyMTime]
	if !ok {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
