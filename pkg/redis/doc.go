// Package redis provides helpers for connecting to the Redis server that
// backs the remote cache tier.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the connection using the supplied Config and
//     gives up after ConnectTimeout.
//   - Storage, a prefix-scoped key-value wrapper whose calls each carry a
//     short timeout.
//   - Healthcheck, for readiness probes.
//
// Config fields are populated from environment variables via
// github.com/caarlos0/env. An empty REDIS_URL disables the remote tier.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // run without the remote tier
//	}
//	defer client.Close()
//
//	store := redis.NewStorageWithConfig(client, cfg)
//	if err := store.Set(ctx, "foo", []byte("bar"), time.Minute); err != nil {
//	    // the call timed out or the server is gone
//	}
//
// Reset only removes keys under the configured prefix, found with SCAN.
//
// # Errors
//
// Sentinel errors (ErrRedisNotReady, ErrHealthcheckFailed, ...) wrap the
// underlying go-redis errors using errors.Join.
package redis
