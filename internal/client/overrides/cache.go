package overrides

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/ridekeeper/internal/logging"
)

// Keys under which the cache persists its state.
const (
	OverridesKey = "status_overrides"
	PendingKey   = "pending_ops"
)

// Store is the durable key-value backend. prefs.Repository satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	SetMany(ctx context.Context, values map[string]string) error
}

type dirtyKeys uint8

const (
	dirtyOverrides dirtyKeys = 1 << iota
	dirtyPending
)

// Cache is the process-wide override cache. Construct one with NewCache at
// start-up and pass it to every consumer. It is safe for concurrent use.
type Cache struct {
	store  Store
	logger logging.Logger

	state atomic.Pointer[Snapshot]

	// commitMu orders persistence so the stored copy never goes back to an
	// older version.
	commitMu sync.Mutex

	subsMu sync.Mutex
	subs   map[chan Snapshot]struct{}
}

// NewCache loads the persisted state from store. Unreadable or corrupt data
// yields an empty collection and a warning, never an error.
func NewCache(ctx context.Context, store Store, logger logging.Logger) *Cache {
	c := &Cache{
		store:  store,
		logger: logger.With("module", "overrides"),
		subs:   make(map[chan Snapshot]struct{}),
	}
	c.state.Store(c.load(ctx))
	return c
}

func (c *Cache) load(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		overrides: make(map[string]bool),
		pending:   make(map[string]struct{}),
	}

	if raw, ok := c.read(ctx, OverridesKey); ok {
		m, err := decodeOverrides(raw)
		if err != nil {
			c.logger.Warn(ctx, "skipping unreadable overrides", "key", OverridesKey, "error", err)
		}
		snap.overrides = m
	}

	if raw, ok := c.read(ctx, PendingKey); ok {
		set, err := decodePending(raw)
		if err != nil {
			c.logger.Warn(ctx, "skipping unreadable pending operations", "key", PendingKey, "error", err)
		}
		snap.pending = set
	}

	c.logger.Debug(ctx, "overrides loaded", "overrides", len(snap.overrides), "pending", len(snap.pending))
	return snap
}

func (c *Cache) read(ctx context.Context, key string) (string, bool) {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "failed to read persisted state", "key", key, "error", err)
		return "", false
	}
	return raw, found
}

// GetOverride returns the override for id. ok is false when none is set and
// the remote value should be used.
func (c *Cache) GetOverride(id string) (value bool, ok bool) {
	return c.state.Load().Override(id)
}

// IsPending reports whether a remote write for id is still in flight.
func (c *Cache) IsPending(id string) bool {
	return c.state.Load().IsPending(id)
}

// CurrentOverrides returns a point-in-time copy of all overrides.
func (c *Cache) CurrentOverrides() map[string]bool {
	return c.state.Load().Overrides()
}

// CurrentPending returns a point-in-time copy of the pending set.
func (c *Cache) CurrentPending() map[string]struct{} {
	return c.state.Load().Pending()
}

// Snapshot returns the current state.
func (c *Cache) Snapshot() Snapshot {
	return *c.state.Load()
}

// SetOverride installs or replaces the override for id.
func (c *Cache) SetOverride(ctx context.Context, id string, value bool) {
	c.update(ctx, dirtyOverrides, func(cur *Snapshot) *Snapshot {
		return cur.withOverride(id, value)
	})
}

// RemoveOverride deletes the override for id. The pending marker is kept.
func (c *Cache) RemoveOverride(ctx context.Context, id string) {
	c.update(ctx, dirtyOverrides, func(cur *Snapshot) *Snapshot {
		return cur.withoutOverride(id)
	})
}

// AddPendingOperation marks id as having an unconfirmed remote write.
func (c *Cache) AddPendingOperation(ctx context.Context, id string) {
	c.update(ctx, dirtyPending, func(cur *Snapshot) *Snapshot {
		return cur.withPending(id)
	})
}

// RemovePendingOperation clears the pending marker for id. The override is kept.
func (c *Cache) RemovePendingOperation(ctx context.Context, id string) {
	c.update(ctx, dirtyPending, func(cur *Snapshot) *Snapshot {
		return cur.withoutPending(id)
	})
}

// ClearOverride removes both the override and the pending marker for id in
// a single published version, and persists both keys together.
func (c *Cache) ClearOverride(ctx context.Context, id string) {
	c.update(ctx, dirtyOverrides|dirtyPending, func(cur *Snapshot) *Snapshot {
		return cur.withoutOverride(id).withoutPending(id)
	})
}

// ClearAllOverrides resets both collections.
func (c *Cache) ClearAllOverrides(ctx context.Context) {
	c.update(ctx, dirtyOverrides|dirtyPending, func(*Snapshot) *Snapshot {
		return &Snapshot{
			overrides: make(map[string]bool),
			pending:   make(map[string]struct{}),
		}
	})
}

// update publishes fn(current) with compare-and-swap, retrying when another
// writer got in first, then persists the keys in dirty.
func (c *Cache) update(ctx context.Context, dirty dirtyKeys, fn func(cur *Snapshot) *Snapshot) {
	for {
		cur := c.state.Load()
		if c.state.CompareAndSwap(cur, fn(cur)) {
			break
		}
	}
	c.commit(ctx, dirty)
}

func (c *Cache) commit(ctx context.Context, dirty dirtyKeys) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	// Always persist the latest version: a racing writer's newer state must
	// not be overwritten by ours.
	snap := c.state.Load()

	values := make(map[string]string, 2)
	if dirty&dirtyOverrides != 0 {
		values[OverridesKey] = encodeOverrides(snap.overrides)
	}
	if dirty&dirtyPending != 0 {
		values[PendingKey] = encodePending(snap.pending)
	}

	if err := c.store.SetMany(ctx, values); err != nil {
		c.logger.Error(ctx, "failed to persist overrides", "error", err)
	}

	c.publish()
}
