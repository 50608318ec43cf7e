package store

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// PrefetchFunc computes the value to cache for a given key (e.g. a Zobrist
// hash string), invoked concurrently across the prime set.
type PrefetchFunc = func(ctx context.Context, key string) ([]byte, error)

// Prefetch primes the store with the result of fn for every key in keys,
// running up to concurrency fetches in parallel. This never runs on the
// search worker's goroutine and never touches internal/board or
// internal/engine state; it only warms the persisted cache ahead of time,
// e.g. for a fixed opening-book line at shell startup.
//
// A per-key fetch error is swallowed rather than aborting the batch: cache
// priming is best effort, and a miss here only costs the first live probe
// its normal round trip.
func (s *Store) Prefetch(ctx context.Context, keys []string, concurrency int, fn PrefetchFunc) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, key := range keys {
		g.Go(func() error {
			if _, found, err := s.Get(key); err == nil && found {
				return nil
			}
			value, err := fn(gctx, key)
			if err != nil {
				return nil
			}
			return s.Put(key, value)
		})
	}

	return g.Wait()
}
