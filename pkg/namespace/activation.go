package namespace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trellisfs/trellis/internal/logger"
)

// DefaultRefreshInterval is how long an activation snapshot is served before
// the next IsActive call re-reads the domain registry.
const DefaultRefreshInterval = 15 * time.Second

// activationSnapshot is one immutable view of the enabled-domain set. A
// refresh builds a fresh snapshot and publishes it with a single atomic
// pointer swap; readers never observe a partially-updated set.
type activationSnapshot struct {
	domains     map[DomainID]struct{}
	refreshedAt time.Time
}

// ActivationCache is the process-wide, time-bounded cache of which domains
// have the namespace feature enabled.
//
// The cache favors availability over strict freshness: when the registry is
// unreachable during a refresh, the previous snapshot keeps serving and its
// timestamp is left unchanged, so the next call retries immediately instead
// of waiting out a full interval. A registry failure therefore never flips a
// domain to inactive and never fails the caller's check. Activation toggles
// become visible to all workers within one interval's bound.
//
// Reads are lock-free (atomic snapshot pointer); only the refresh itself
// serializes on a mutex so concurrent expiries trigger a single registry
// round trip.
type ActivationCache struct {
	registry DomainRegistry
	interval time.Duration

	snapshot atomic.Pointer[activationSnapshot]

	// refreshMu serializes refresh attempts, never reads
	refreshMu sync.Mutex

	// now is the clock, replaceable in tests
	now func() time.Time
}

// NewActivationCache creates an activation cache over the given registry.
// A non-positive interval falls back to DefaultRefreshInterval.
//
// The first snapshot is empty and already expired, so the first IsActive
// call performs the initial registry load.
func NewActivationCache(registry DomainRegistry, interval time.Duration) *ActivationCache {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	c := &ActivationCache{
		registry: registry,
		interval: interval,
		now:      time.Now,
	}
	c.snapshot.Store(&activationSnapshot{domains: map[DomainID]struct{}{}})

	return c
}

// IsActive reports whether domain has the namespace feature enabled,
// refreshing the snapshot first if it is older than the refresh interval.
// Registry failures degrade to the stale snapshot and are logged, never
// surfaced to the caller.
func (c *ActivationCache) IsActive(ctx context.Context, domain DomainID) bool {
	snap := c.snapshot.Load()
	if c.now().After(snap.refreshedAt.Add(c.interval)) {
		snap = c.refresh(ctx)
	}

	_, ok := snap.domains[domain]
	return ok
}

// Invalidate expires the current snapshot so the next IsActive call reloads
// from the registry. Called after local enable/disable mutations to make
// them visible immediately instead of within one interval.
func (c *ActivationCache) Invalidate() {
	snap := c.snapshot.Load()
	expired := &activationSnapshot{domains: snap.domains}
	c.snapshot.Store(expired)
}

// refresh reloads the enabled-domain set from the registry and publishes a
// new snapshot. On failure the previous snapshot is returned untouched,
// timestamp included.
func (c *ActivationCache) refresh(ctx context.Context) *activationSnapshot {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited on the mutex.
	snap := c.snapshot.Load()
	if !c.now().After(snap.refreshedAt.Add(c.interval)) {
		return snap
	}

	ids, err := c.registry.ListActiveDomains(ctx)
	if err != nil {
		logger.Warn("activation cache: registry refresh failed, serving stale snapshot: %v", err)
		return snap
	}

	domains := make(map[DomainID]struct{}, len(ids))
	for _, id := range ids {
		domains[id] = struct{}{}
	}

	fresh := &activationSnapshot{domains: domains, refreshedAt: c.now()}
	c.snapshot.Store(fresh)

	return fresh
}
