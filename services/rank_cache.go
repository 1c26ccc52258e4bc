package services

import (
	"sync"
	"time"

	"atlas-score-engine/models"
)

// DefaultCacheTTL bounds leaderboard staleness. Entries are never invalidated
// on write; a minute of lag is accepted in exchange for absorbing request
// bursts.
const DefaultCacheTTL = 60 * time.Second

type rankCacheKey struct {
	Mode    models.LeaderboardMode
	PastDay bool
}

type rankCacheEntry struct {
	rows     []models.LeaderboardRow
	storedAt time.Time
}

// RankCache is a tiny in-process cache in front of the leaderboard
// aggregator. The key space is the fixed {xp,elo} x {alltime,daily} cross
// product, so there is nothing to evict; freshness is checked lazily on read.
// Concurrent misses may compute and store the same list twice, which is
// harmless (last writer wins).
type RankCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[rankCacheKey]rankCacheEntry
}

func NewRankCache(ttl time.Duration) *RankCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RankCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[rankCacheKey]rankCacheEntry),
	}
}

// Get returns the cached list for the mode/window pair, or false when the
// entry is missing or stale.
func (c *RankCache) Get(mode models.LeaderboardMode, pastDay bool) ([]models.LeaderboardRow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[rankCacheKey{Mode: mode, PastDay: pastDay}]
	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.rows, true
}

// Set replaces the entry for the mode/window pair wholesale.
func (c *RankCache) Set(mode models.LeaderboardMode, pastDay bool, rows []models.LeaderboardRow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[rankCacheKey{Mode: mode, PastDay: pastDay}] = rankCacheEntry{
		rows:     rows,
		storedAt: c.now(),
	}
}
