// Package cache provides a layered key-value cache with TTL expiry,
// read-through promotion and hit/miss statistics.
//
// A Manager holds an ordered list of tiers, fastest first:
//
//   - MemoryTier: in-process map with LRU eviction, always present.
//   - DiskTier: one JSON file per entry under a directory (WithDiskDir).
//   - RedisTier: shared remote store under a key prefix (WithRemote).
//
// Disk and remote tiers that fail to initialize are logged once and left
// out; the manager keeps working with the remaining tiers.
//
// # Semantics
//
// Set writes the entry to every tier, the in-process tier first, so a
// following Get on the same goroutine always sees the new value. Get probes
// the tiers in order. An expired entry is deleted from the tier it was found
// in and the probe continues. A hit in a slower tier is copied into every
// faster tier with its original creation time and TTL; reading never
// extends the lifetime of an entry.
//
// Keys are normalized with NormalizeKey before they reach any tier, so the
// same logical key maps to the same physical key everywhere.
//
// # Usage
//
//	m := cache.NewManager(
//	    cache.WithLogger(log),
//	    cache.WithDiskDir("/var/cache/styledoc"),
//	    cache.WithRemote(redis.NewStorageWithConfig(client, cfg)),
//	)
//	defer m.Close()
//
//	key, _ := cache.ContentKey("html_output_", content, style)
//	if html, ok := m.Get(ctx, key); ok {
//	    return html
//	}
//	_ = m.Set(ctx, key, rendered, time.Hour)
//
// Stats reports hits, misses, per-tier hits and errors, the hit rate and
// the size of every tier.
package cache
