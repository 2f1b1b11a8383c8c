package overrides

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/prefs"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
)

type memStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	writes []map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) SetMany(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	w := make(map[string]string, len(values))
	for k, v := range values {
		m.data[k] = v
		w[k] = v
	}
	m.writes = append(m.writes, w)
	return nil
}

func (m *memStore) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *memStore) lastWrite() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.writes) == 0 {
		return nil
	}
	return m.writes[len(m.writes)-1]
}

func newCache(t *testing.T, store Store) *Cache {
	t.Helper()
	return NewCache(context.Background(), store, logging.Discard())
}

func TestUntouchedIDs(t *testing.T) {
	c := newCache(t, newMemStore())

	_, ok := c.GetOverride("never")
	assert.False(t, ok)
	assert.False(t, c.IsPending("never"))
	assert.Empty(t, c.CurrentOverrides())
	assert.Empty(t, c.CurrentPending())
}

func TestSetOverride_GetAndLastWriteWins(t *testing.T) {
	c := newCache(t, newMemStore())
	ctx := context.Background()

	for _, v := range []bool{true, false} {
		c.SetOverride(ctx, "x", v)
		got, ok := c.GetOverride("x")
		require.True(t, ok)
		require.Equal(t, v, got)
	}

	c.SetOverride(ctx, "x", true)
	c.SetOverride(ctx, "x", false)
	got, ok := c.GetOverride("x")
	require.True(t, ok)
	assert.False(t, got)
}

func TestPendingAddRemove(t *testing.T) {
	c := newCache(t, newMemStore())
	ctx := context.Background()

	c.AddPendingOperation(ctx, "x")
	assert.True(t, c.IsPending("x"))
	c.RemovePendingOperation(ctx, "x")
	assert.False(t, c.IsPending("x"))
}

func TestStateMachine(t *testing.T) {
	ctx := context.Background()

	type state struct {
		override, hasOverride, pending bool
	}
	observe := func(c *Cache) state {
		v, ok := c.GetOverride("s")
		return state{override: v, hasOverride: ok, pending: c.IsPending("s")}
	}

	tests := []struct {
		name  string
		steps []func(c *Cache)
		want  state
	}{
		{
			name:  "absent to overridden",
			steps: []func(c *Cache){func(c *Cache) { c.SetOverride(ctx, "s", true) }},
			want:  state{override: true, hasOverride: true},
		},
		{
			name:  "absent to pending only",
			steps: []func(c *Cache){func(c *Cache) { c.AddPendingOperation(ctx, "s") }},
			want:  state{pending: true},
		},
		{
			name: "overridden to overridden pending",
			steps: []func(c *Cache){
				func(c *Cache) { c.SetOverride(ctx, "s", false) },
				func(c *Cache) { c.AddPendingOperation(ctx, "s") },
			},
			want: state{override: false, hasOverride: true, pending: true},
		},
		{
			name: "pending only to overridden pending",
			steps: []func(c *Cache){
				func(c *Cache) { c.AddPendingOperation(ctx, "s") },
				func(c *Cache) { c.SetOverride(ctx, "s", true) },
			},
			want: state{override: true, hasOverride: true, pending: true},
		},
		{
			name: "overridden pending to overridden",
			steps: []func(c *Cache){
				func(c *Cache) { c.SetOverride(ctx, "s", true) },
				func(c *Cache) { c.AddPendingOperation(ctx, "s") },
				func(c *Cache) { c.RemovePendingOperation(ctx, "s") },
			},
			want: state{override: true, hasOverride: true},
		},
		{
			name: "overridden pending to pending only",
			steps: []func(c *Cache){
				func(c *Cache) { c.SetOverride(ctx, "s", true) },
				func(c *Cache) { c.AddPendingOperation(ctx, "s") },
				func(c *Cache) { c.RemoveOverride(ctx, "s") },
			},
			want: state{pending: true},
		},
		{
			name: "any state cleared to absent",
			steps: []func(c *Cache){
				func(c *Cache) { c.SetOverride(ctx, "s", true) },
				func(c *Cache) { c.AddPendingOperation(ctx, "s") },
				func(c *Cache) { c.ClearOverride(ctx, "s") },
			},
			want: state{},
		},
		{
			name: "clear on absent stays absent",
			steps: []func(c *Cache){
				func(c *Cache) { c.ClearOverride(ctx, "s") },
			},
			want: state{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCache(t, newMemStore())
			for _, step := range tt.steps {
				step(c)
			}
			assert.Equal(t, tt.want, observe(c))
		})
	}
}

func TestClearOverride_RemovesBothAndPersistsTogether(t *testing.T) {
	store := newMemStore()
	c := newCache(t, store)
	ctx := context.Background()

	c.SetOverride(ctx, "x", true)
	c.SetOverride(ctx, "y", false)
	c.AddPendingOperation(ctx, "x")
	c.ClearOverride(ctx, "x")

	_, ok := c.GetOverride("x")
	assert.False(t, ok)
	assert.False(t, c.IsPending("x"))

	v, ok := c.GetOverride("y")
	assert.True(t, ok)
	assert.False(t, v)

	assert.Equal(t, map[string]string{
		OverridesKey: `{"y"=false}`,
		PendingKey:   `[]`,
	}, store.lastWrite())
}

func TestClearAllOverrides(t *testing.T) {
	store := newMemStore()
	c := newCache(t, store)
	ctx := context.Background()

	for i := range 50 {
		id := fmt.Sprintf("u%d", i)
		c.SetOverride(ctx, id, i%2 == 0)
		if i%3 == 0 {
			c.AddPendingOperation(ctx, id)
		}
	}

	c.ClearAllOverrides(ctx)

	assert.Empty(t, c.CurrentOverrides())
	assert.Empty(t, c.CurrentPending())
	assert.Equal(t, "{}", store.value(OverridesKey))
	assert.Equal(t, "[]", store.value(PendingKey))
}

func TestMutationsPersistOnlyTheirKey(t *testing.T) {
	store := newMemStore()
	c := newCache(t, store)
	ctx := context.Background()

	c.SetOverride(ctx, "u1", true)
	assert.Equal(t, map[string]string{OverridesKey: `{"u1"=true}`}, store.lastWrite())

	c.AddPendingOperation(ctx, "u1")
	assert.Equal(t, map[string]string{PendingKey: `["u1"]`}, store.lastWrite())

	c.RemoveOverride(ctx, "u1")
	assert.Equal(t, map[string]string{OverridesKey: `{}`}, store.lastWrite())

	c.RemovePendingOperation(ctx, "u1")
	assert.Equal(t, map[string]string{PendingKey: `[]`}, store.lastWrite())
}

func TestCurrentCollectionsAreCopies(t *testing.T) {
	c := newCache(t, newMemStore())
	ctx := context.Background()
	c.SetOverride(ctx, "u1", true)
	c.AddPendingOperation(ctx, "u1")

	o := c.CurrentOverrides()
	o["u1"] = false
	o["u2"] = true
	p := c.CurrentPending()
	delete(p, "u1")

	v, _ := c.GetOverride("u1")
	assert.True(t, v)
	_, ok := c.GetOverride("u2")
	assert.False(t, ok)
	assert.True(t, c.IsPending("u1"))
}

func TestSnapshotIsStableAcrossMutations(t *testing.T) {
	c := newCache(t, newMemStore())
	ctx := context.Background()

	c.SetOverride(ctx, "u1", true)
	before := c.Snapshot()
	c.SetOverride(ctx, "u1", false)
	c.AddPendingOperation(ctx, "u1")

	v, ok := before.Override("u1")
	assert.True(t, ok)
	assert.True(t, v)
	assert.False(t, before.IsPending("u1"))
	assert.Equal(t, []string{"u1"}, c.Snapshot().PendingIDs())
}

func TestLoad_ExistingInstallFormat(t *testing.T) {
	store := newMemStore()
	store.data[OverridesKey] = `{"u1"=true,"u2"=false}`
	store.data[PendingKey] = `["u2"]`

	c := newCache(t, store)

	assert.Equal(t, map[string]bool{"u1": true, "u2": false}, c.CurrentOverrides())
	assert.True(t, c.IsPending("u2"))
	assert.False(t, c.IsPending("u1"))
}

func TestLoad_CorruptDataYieldsEmptyState(t *testing.T) {
	store := newMemStore()
	store.data[OverridesKey] = `garbage`
	store.data[PendingKey] = `{"not"="a list"}`

	c := newCache(t, store)

	assert.Empty(t, c.CurrentOverrides())
	assert.Empty(t, c.CurrentPending())
}

func TestLoad_MalformedEntryIsSkipped(t *testing.T) {
	store := newMemStore()
	store.data[OverridesKey] = `{"u1"=true,"broken","u3"=false}`

	c := newCache(t, store)

	assert.Equal(t, map[string]bool{"u1": true, "u3": false}, c.CurrentOverrides())
}

func TestLoad_ReadErrorYieldsEmptyState(t *testing.T) {
	store := newMemStore()
	store.data[OverridesKey] = `{"u1"=true}`
	store.getErr = errors.New("disk unreadable")

	c := newCache(t, store)

	assert.Empty(t, c.CurrentOverrides())
	assert.Empty(t, c.CurrentPending())
}

func TestPersistFailure_KeepsInMemoryState(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("disk full")
	c := newCache(t, store)
	ctx := context.Background()

	c.SetOverride(ctx, "u1", true)
	c.AddPendingOperation(ctx, "u1")

	v, ok := c.GetOverride("u1")
	assert.True(t, ok)
	assert.True(t, v)
	assert.True(t, c.IsPending("u1"))
}

func TestReload_RoundTripsThroughStore(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	c := newCache(t, store)
	want := map[string]bool{"a": true, "b,c": false, "d=e": true, `f"g`: false}
	for k, v := range want {
		c.SetOverride(ctx, k, v)
	}
	c.AddPendingOperation(ctx, "b,c")
	c.AddPendingOperation(ctx, "only-pending")

	reloaded := newCache(t, store)
	assert.Equal(t, want, reloaded.CurrentOverrides())
	assert.Equal(t, map[string]struct{}{"b,c": {}, "only-pending": {}}, reloaded.CurrentPending())
}

func TestConcurrentWritersOnDistinctIDs(t *testing.T) {
	store := newMemStore()
	c := newCache(t, store)
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.SetOverride(ctx, fmt.Sprintf("u%d", i), i%2 == 0)
		}()
		go func() {
			defer wg.Done()
			c.AddPendingOperation(ctx, fmt.Sprintf("p%d", i))
			_, _ = c.GetOverride(fmt.Sprintf("u%d", i))
		}()
	}
	wg.Wait()

	assert.Len(t, c.CurrentOverrides(), n)
	assert.Len(t, c.CurrentPending(), n)
	for i := range n {
		v, ok := c.GetOverride(fmt.Sprintf("u%d", i))
		require.True(t, ok)
		require.Equal(t, i%2 == 0, v)
	}

	// the durable copy ends on the latest version too
	reloaded := newCache(t, store)
	assert.Len(t, reloaded.CurrentOverrides(), n)
	assert.Len(t, reloaded.CurrentPending(), n)
}

func TestSubscribe_ReceivesFullSnapshots(t *testing.T) {
	c := newCache(t, newMemStore())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := c.Subscribe(ctx)

	initial := <-sub
	assert.Empty(t, initial.Overrides())

	c.SetOverride(ctx, "u1", true)
	snap := <-sub
	v, ok := snap.Override("u1")
	assert.True(t, ok)
	assert.True(t, v)

	c.AddPendingOperation(ctx, "u1")
	snap = <-sub
	assert.True(t, snap.IsPending("u1"))
	_, ok = snap.Override("u1")
	assert.True(t, ok)
}

func TestSubscribe_ConflatesForSlowReaders(t *testing.T) {
	c := newCache(t, newMemStore())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := c.Subscribe(ctx)
	for i := range 10 {
		c.SetOverride(ctx, fmt.Sprintf("u%d", i), true)
	}

	snap := <-sub
	assert.Len(t, snap.Overrides(), 10)
	select {
	case extra := <-sub:
		t.Fatalf("expected a single conflated snapshot, got another: %v", extra.Overrides())
	default:
	}
}

func TestSubscribe_ClosedOnCancel(t *testing.T) {
	c := newCache(t, newMemStore())
	ctx, cancel := context.WithCancel(context.Background())

	sub := c.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// mutations after unsubscribe must not block or panic
	c.SetOverride(context.Background(), "u1", true)
}

func openPrefs(t *testing.T, path string) *prefs.SQLiteRepository {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	require.NoError(t, err)
	return prefs.NewSQLiteRepository(db)
}

func TestRestartScenario_WithSQLitePrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ridekeeper.db")
	ctx := context.Background()

	first := newCache(t, openPrefs(t, path))
	first.SetOverride(ctx, "u1", true)
	v, ok := first.GetOverride("u1")
	require.True(t, ok)
	require.True(t, v)

	second := newCache(t, openPrefs(t, path))
	v, ok = second.GetOverride("u1")
	require.True(t, ok, "override must survive a restart")
	require.True(t, v)

	second.ClearOverride(ctx, "u1")
	_, ok = second.GetOverride("u1")
	require.False(t, ok)

	third := newCache(t, openPrefs(t, path))
	_, ok = third.GetOverride("u1")
	require.False(t, ok, "cleared override must stay cleared after a restart")
	require.False(t, third.IsPending("u1"))
}
