package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tcastillov/futbol-data/internal/platform/logging"
)

// Category partitions cache entries by data volatility. TTLs are configured
// per category: static dataset snapshots live for days, live match data for
// minutes, synthetic placeholders shorter still.
type Category string

const (
	CategoryStatic          Category = "static"
	CategoryLeagues         Category = "leagues"
	CategoryTeams           Category = "teams"
	CategoryPlayers         Category = "players"
	CategoryMatchesFinished Category = "matches_finished"
	CategoryMatchesLive     Category = "matches_live"
	CategoryStandings       Category = "standings"
	CategoryTeamStats       Category = "team_stats"
	// CategorySynthetic is memory-only with a short TTL so real data, once a
	// source recovers, supersedes placeholders promptly.
	CategorySynthetic Category = "synthetic"
)

// TTL holds the lifetime of an entry in each tier. Disk == 0 keeps the
// category out of the durable tier entirely.
type TTL struct {
	Memory time.Duration
	Disk   time.Duration
}

type TTLConfig map[Category]TTL

// DefaultTTLConfig mirrors the volatility of each category.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		CategoryStatic:          {Memory: 6 * time.Hour, Disk: 7 * 24 * time.Hour},
		CategoryLeagues:         {Memory: 6 * time.Hour, Disk: 7 * 24 * time.Hour},
		CategoryTeams:           {Memory: time.Hour, Disk: 24 * time.Hour},
		CategoryPlayers:         {Memory: time.Hour, Disk: 24 * time.Hour},
		CategoryMatchesFinished: {Memory: time.Hour, Disk: 24 * time.Hour},
		CategoryMatchesLive:     {Memory: 30 * time.Second, Disk: 2 * time.Minute},
		CategoryStandings:       {Memory: 10 * time.Minute, Disk: time.Hour},
		CategoryTeamStats:       {Memory: time.Hour, Disk: 24 * time.Hour},
		CategorySynthetic:       {Memory: 5 * time.Minute, Disk: 0},
	}
}

func (c TTLConfig) ttl(category Category) TTL {
	if t, ok := c[category]; ok {
		return t
	}
	return TTL{Memory: time.Minute, Disk: 0}
}

type memEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Store is the two-tier cache: a fast in-memory map checked first and a
// durable on-disk tier that repopulates memory on miss. Writes go through
// to both tiers. Entries are immutable once written; they are replaced only
// by expiry or explicit invalidation.
type Store struct {
	mu      sync.RWMutex
	entries map[string]memEntry

	disk   *DiskTier
	ttls   TTLConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewStore(disk *DiskTier, ttls TTLConfig, logger *logging.Logger) *Store {
	if ttls == nil {
		ttls = DefaultTTLConfig()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		entries: make(map[string]memEntry),
		disk:    disk,
		ttls:    ttls,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the cached payload for {category}:{key}, consulting memory
// first and falling back to the disk tier. A disk hit repopulates memory
// for the remainder of the entry's disk lifetime, capped by the memory TTL.
func (s *Store) Get(ctx context.Context, category Category, key string) ([]byte, bool) {
	if key == "" {
		return nil, false
	}

	fullKey := EntryKey(category, key)
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[fullKey]
	s.mu.RUnlock()
	if ok {
		if e.expiresAt.After(now) {
			return e.payload, true
		}
		s.mu.Lock()
		delete(s.entries, fullKey)
		s.mu.Unlock()
	}

	if s.disk == nil {
		return nil, false
	}

	payload, expiresAt, ok := s.disk.Get(ctx, category, key)
	if !ok {
		return nil, false
	}

	memUntil := now.Add(s.ttls.ttl(category).Memory)
	if expiresAt.Before(memUntil) {
		memUntil = expiresAt
	}
	s.mu.Lock()
	s.entries[fullKey] = memEntry{payload: payload, expiresAt: memUntil}
	s.mu.Unlock()

	return payload, true
}

// Set writes the payload through to both tiers. Concurrent writes to the
// same key are last-write-wins.
func (s *Store) Set(ctx context.Context, category Category, key string, payload []byte) {
	if key == "" || payload == nil {
		return
	}

	ttl := s.ttls.ttl(category)
	now := s.now()

	if ttl.Memory > 0 {
		s.mu.Lock()
		s.entries[EntryKey(category, key)] = memEntry{
			payload:   payload,
			expiresAt: now.Add(ttl.Memory),
		}
		s.mu.Unlock()
	}

	if s.disk != nil && ttl.Disk > 0 {
		if err := s.disk.Set(ctx, category, key, payload, now.Add(ttl.Disk)); err != nil {
			s.logger.WarnContext(ctx, "disk cache write failed", "category", string(category), "error", err)
		}
	}
}

// Invalidate removes the entry from both tiers.
func (s *Store) Invalidate(ctx context.Context, category Category, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, EntryKey(category, key))
	s.mu.Unlock()

	if s.disk != nil {
		s.disk.Delete(ctx, category, key)
	}
}

// InvalidateCategory drops every memory entry in the category and clears
// the category's disk directory.
func (s *Store) InvalidateCategory(ctx context.Context, category Category) {
	prefix := string(category) + ":"

	s.mu.Lock()
	for key := range s.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()

	if s.disk != nil {
		s.disk.DeleteCategory(ctx, category)
	}
}

// EntryKey is the persisted key layout: {category}:{normalized-request-key}.
func EntryKey(category Category, key string) string {
	return string(category) + ":" + key
}
