package namespace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRegistry is a scriptable DomainRegistry for cache tests.
type stubRegistry struct {
	domains []DomainID
	err     error
	calls   int
}

func (s *stubRegistry) ListActiveDomains(ctx context.Context) ([]DomainID, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.domains, nil
}

func (s *stubRegistry) Enable(ctx context.Context, domain DomainID) error {
	s.domains = append(s.domains, domain)
	return nil
}

func (s *stubRegistry) Disable(ctx context.Context, domain DomainID) error {
	kept := s.domains[:0]
	for _, d := range s.domains {
		if d != domain {
			kept = append(kept, d)
		}
	}
	s.domains = kept
	return nil
}

// fakeClock drives the cache's injectable clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newCacheWithClock(registry DomainRegistry, interval time.Duration) (*ActivationCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewActivationCache(registry, interval)
	cache.now = clock.now
	return cache, clock
}

func TestIsActiveInitialLoad(t *testing.T) {
	registry := &stubRegistry{domains: []DomainID{1, 3}}
	cache, _ := newCacheWithClock(registry, time.Minute)
	ctx := context.Background()

	assert.True(t, cache.IsActive(ctx, 1))
	assert.False(t, cache.IsActive(ctx, 2))
	assert.True(t, cache.IsActive(ctx, 3))
	assert.Equal(t, 1, registry.calls, "one refresh serves all lookups within the interval")
}

func TestIsActiveRefreshesAfterInterval(t *testing.T) {
	registry := &stubRegistry{domains: []DomainID{1}}
	cache, clock := newCacheWithClock(registry, time.Minute)
	ctx := context.Background()

	require.True(t, cache.IsActive(ctx, 1))

	// A toggle in the registry is not visible until the snapshot expires.
	registry.domains = []DomainID{2}
	assert.True(t, cache.IsActive(ctx, 1))
	assert.Equal(t, 1, registry.calls)

	clock.advance(time.Minute + time.Second)
	assert.False(t, cache.IsActive(ctx, 1))
	assert.True(t, cache.IsActive(ctx, 2))
	assert.Equal(t, 2, registry.calls)
}

func TestIsActiveServesStaleOnFailure(t *testing.T) {
	registry := &stubRegistry{domains: []DomainID{1}}
	cache, clock := newCacheWithClock(registry, time.Minute)
	ctx := context.Background()

	require.True(t, cache.IsActive(ctx, 1))

	// Registry goes down after the snapshot expires: the stale set keeps
	// serving and the check never fails.
	registry.err = errors.New("registry unreachable")
	clock.advance(2 * time.Minute)

	assert.True(t, cache.IsActive(ctx, 1))
	assert.Equal(t, 2, registry.calls)

	// The failed refresh left the timestamp untouched, so the next call
	// retries at once instead of waiting out another interval.
	assert.True(t, cache.IsActive(ctx, 1))
	assert.Equal(t, 3, registry.calls)

	// Recovery picks up the current registry state.
	registry.err = nil
	registry.domains = []DomainID{2}
	assert.False(t, cache.IsActive(ctx, 1))
	assert.True(t, cache.IsActive(ctx, 2))
}

func TestInvalidateForcesImmediateRefresh(t *testing.T) {
	registry := &stubRegistry{domains: []DomainID{1}}
	cache, _ := newCacheWithClock(registry, time.Hour)
	ctx := context.Background()

	require.True(t, cache.IsActive(ctx, 1))

	registry.domains = []DomainID{1, 2}
	require.False(t, cache.IsActive(ctx, 2), "fresh snapshot still serving")

	cache.Invalidate()
	assert.True(t, cache.IsActive(ctx, 2))
}

func TestZeroIntervalFallsBackToDefault(t *testing.T) {
	cache := NewActivationCache(&stubRegistry{}, 0)
	assert.Equal(t, DefaultRefreshInterval, cache.interval)
}
