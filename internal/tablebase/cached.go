package tablebase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hailam/chessplay/internal/board"
)

// PersistentCache is the narrow interface CachedProber needs from
// internal/store's Badger-backed Store, kept here (rather than importing
// internal/store directly into a struct field type) so the dependency runs
// one way: tablebase -> store, never the reverse.
type PersistentCache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Prefetch(ctx context.Context, keys []string, concurrency int, fn func(ctx context.Context, key string) ([]byte, error)) error
}

// CachedProber wraps another prober with an in-memory cache, optionally
// backed by a PersistentCache so entries survive process restarts.
// This reduces API calls for frequently probed positions.
type CachedProber struct {
	inner   Prober
	cache   map[uint64]ProbeResult
	mu      sync.RWMutex
	maxSize int
	hits    uint64
	misses  uint64

	persist PersistentCache
}

// NewCachedProber creates a cached prober wrapping the given prober.
func NewCachedProber(inner Prober, cacheSize int) *CachedProber {
	return &CachedProber{
		inner:   inner,
		cache:   make(map[uint64]ProbeResult, cacheSize),
		maxSize: cacheSize,
	}
}

// NewCachedLichessProber creates a cached Lichess prober with default cache size.
func NewCachedLichessProber() *CachedProber {
	return NewCachedProber(NewLichessProber(), 100000)
}

// WithPersistentCache attaches a PersistentCache (normally an
// *internal/store.Store) as a second-level cache behind the in-memory map,
// so probes resolved in a previous process are not re-fetched. Returns cp
// for chaining at construction time.
func (cp *CachedProber) WithPersistentCache(p PersistentCache) *CachedProber {
	cp.persist = p
	return cp
}

func tbCacheKey(hash uint64) string {
	return fmt.Sprintf("tb:%016x", hash)
}

func (cp *CachedProber) Probe(pos *board.Position) ProbeResult {
	// Check in-memory cache first
	cp.mu.RLock()
	if result, ok := cp.cache[pos.Hash]; ok {
		cp.mu.RUnlock()
		cp.mu.Lock()
		cp.hits++
		cp.mu.Unlock()
		return result
	}
	cp.mu.RUnlock()

	// Check the on-disk cache next, if attached.
	if cp.persist != nil {
		if raw, found, err := cp.persist.Get(tbCacheKey(pos.Hash)); err == nil && found {
			var result ProbeResult
			if json.Unmarshal(raw, &result) == nil {
				cp.mu.Lock()
				cp.hits++
				cp.storeLocked(pos.Hash, result)
				cp.mu.Unlock()
				return result
			}
		}
	}

	// Cache miss on both levels - probe underlying source.
	result := cp.inner.Probe(pos)

	cp.mu.Lock()
	cp.misses++
	cp.storeLocked(pos.Hash, result)
	cp.mu.Unlock()

	if cp.persist != nil {
		if raw, err := json.Marshal(result); err == nil {
			_ = cp.persist.Put(tbCacheKey(pos.Hash), raw)
		}
	}

	return result
}

// storeLocked inserts into the in-memory cache; caller holds cp.mu.
func (cp *CachedProber) storeLocked(hash uint64, result ProbeResult) {
	if len(cp.cache) >= cp.maxSize {
		// Simple eviction: clear half the cache
		i := 0
		for k := range cp.cache {
			if i >= cp.maxSize/2 {
				break
			}
			delete(cp.cache, k)
			i++
		}
	}
	cp.cache[hash] = result
}

// Prime warms the persistent cache for a batch of positions before search
// begins, using the attached PersistentCache's bounded-concurrency fetcher.
// A no-op if no PersistentCache is attached.
func (cp *CachedProber) Prime(ctx context.Context, positions []*board.Position, concurrency int) error {
	if cp.persist == nil || len(positions) == 0 {
		return nil
	}

	byKey := make(map[string]*board.Position, len(positions))
	keys := make([]string, 0, len(positions))
	for _, pos := range positions {
		key := tbCacheKey(pos.Hash)
		if _, seen := byKey[key]; seen {
			continue
		}
		byKey[key] = pos
		keys = append(keys, key)
	}

	return cp.persist.Prefetch(ctx, keys, concurrency, func(_ context.Context, key string) ([]byte, error) {
		result := cp.inner.Probe(byKey[key])
		return json.Marshal(result)
	})
}

func (cp *CachedProber) ProbeRoot(pos *board.Position) RootResult {
	// Root probing is not cached (needs move info)
	return cp.inner.ProbeRoot(pos)
}

func (cp *CachedProber) MaxPieces() int {
	return cp.inner.MaxPieces()
}

func (cp *CachedProber) Available() bool {
	return cp.inner.Available()
}

// HitRate returns the cache hit rate as a percentage.
func (cp *CachedProber) HitRate() float64 {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	total := cp.hits + cp.misses
	if total == 0 {
		return 0
	}
	return float64(cp.hits) / float64(total) * 100
}

// CacheSize returns the current number of cached entries.
func (cp *CachedProber) CacheSize() int {
	cp.mu.RLock()
	defer cp.mu.RUnlock()
	return len(cp.cache)
}

// Clear clears the cache.
func (cp *CachedProber) Clear() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.cache = make(map[uint64]ProbeResult, cp.maxSize)
	cp.hits = 0
	cp.misses = 0
}
