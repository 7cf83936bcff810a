package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, ttls TTLConfig) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	disk, err := NewDiskTier(dir, nil)
	if err != nil {
		t.Fatalf("new disk tier: %v", err)
	}
	return NewStore(disk, ttls, nil), dir
}

func TestStore_WriteThroughAndMemoryHit(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	payload := []byte(`{"id":"real-madrid"}`)

	store.Set(ctx, CategoryTeams, "liga:rma", payload)

	got, ok := store.Get(ctx, CategoryTeams, "liga:rma")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %s", got)
	}
}

func TestStore_DiskRepopulatesMemoryAfterMemoryExpiry(t *testing.T) {
	t.Parallel()

	ttls := TTLConfig{
		CategoryTeams: {Memory: 10 * time.Millisecond, Disk: time.Hour},
	}
	store, _ := newTestStore(t, ttls)
	ctx := context.Background()
	payload := []byte(`{"id":"barcelona"}`)

	store.Set(ctx, CategoryTeams, "liga:fcb", payload)
	time.Sleep(30 * time.Millisecond)

	// Memory entry is stale; the durable tier must answer and repopulate.
	got, ok := store.Get(ctx, CategoryTeams, "liga:fcb")
	if !ok {
		t.Fatal("expected disk tier hit after memory expiry")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %s", got)
	}

	store.mu.RLock()
	_, inMemory := store.entries[EntryKey(CategoryTeams, "liga:fcb")]
	store.mu.RUnlock()
	if !inMemory {
		t.Fatal("disk hit did not repopulate memory tier")
	}
}

func TestStore_CorruptedDiskEntryIsAMiss(t *testing.T) {
	t.Parallel()

	ttls := TTLConfig{
		CategoryStandings: {Memory: time.Millisecond, Disk: time.Hour},
	}
	store, dir := newTestStore(t, ttls)
	ctx := context.Background()

	store.Set(ctx, CategoryStandings, "liga:2026", []byte(`{"rows":[]}`))
	time.Sleep(10 * time.Millisecond)

	entries, err := os.ReadDir(filepath.Join(dir, string(CategoryStandings)))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one disk entry, got %d (err=%v)", len(entries), err)
	}
	path := filepath.Join(dir, string(CategoryStandings), entries[0].Name())
	if err := os.WriteFile(path, []byte("{truncated"), 0o644); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}

	if _, ok := store.Get(ctx, CategoryStandings, "liga:2026"); ok {
		t.Fatal("corrupted entry must be a miss, not a hit")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("corrupted entry was not deleted lazily")
	}
}

func TestStore_SyntheticCategoryNeverTouchesDisk(t *testing.T) {
	t.Parallel()

	store, dir := newTestStore(t, nil)
	ctx := context.Background()

	store.Set(ctx, CategorySynthetic, "liga:fake", []byte(`{"is_synthetic":true}`))

	if _, err := os.Stat(filepath.Join(dir, string(CategorySynthetic))); !os.IsNotExist(err) {
		t.Fatal("synthetic payload must not be written to the durable tier")
	}
	if _, ok := store.Get(ctx, CategorySynthetic, "liga:fake"); !ok {
		t.Fatal("synthetic payload should still hit in memory")
	}
}

func TestStore_InvalidateRemovesBothTiers(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, nil)
	ctx := context.Background()

	store.Set(ctx, CategoryMatchesFinished, "liga:2026-03-01", []byte(`[]`))
	store.Invalidate(ctx, CategoryMatchesFinished, "liga:2026-03-01")

	if _, ok := store.Get(ctx, CategoryMatchesFinished, "liga:2026-03-01"); ok {
		t.Fatal("entry survived invalidation")
	}
}

func TestStore_ExpiredDiskEntryIsAMiss(t *testing.T) {
	t.Parallel()

	ttls := TTLConfig{
		CategoryMatchesLive: {Memory: time.Millisecond, Disk: 20 * time.Millisecond},
	}
	store, _ := newTestStore(t, ttls)
	ctx := context.Background()

	store.Set(ctx, CategoryMatchesLive, "liga:live", []byte(`[]`))
	time.Sleep(50 * time.Millisecond)

	if _, ok := store.Get(ctx, CategoryMatchesLive, "liga:live"); ok {
		t.Fatal("expired disk entry must be a miss")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, nil)
	ctx := context.Background()
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				store.Set(ctx, CategoryTeams, "shared", []byte(`{"id":"x"}`))
				store.Get(ctx, CategoryTeams, "shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
