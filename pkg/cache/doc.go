// Package cache provides a Redis-backed read cache for gateway responses.
//
// The backend emits no cache validators, so entries are plain TTL-bound
// snapshots of response bodies. Mutating requests through the gateway
// invalidate the affected endpoint prefix, which keeps list pages from
// serving stale data after a write.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint: "/posts/",
//		Query:    url.Values{"cursor": []string{"abc"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the backend
//	}
//
// # Invalidation
//
//	// After POST /posts/ succeeds:
//	_ = manager.InvalidatePrefix(ctx, "/posts/")
//
// # Metrics
//
//   - scribe_cache_hits_total - Cache hits
//   - scribe_cache_misses_total - Cache misses
//   - scribe_cache_evictions_total - Entries removed by invalidation
//   - scribe_cache_errors_total{operation} - Cache operation errors
package cache
