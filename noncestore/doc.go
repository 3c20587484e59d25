// Package noncestore provides goToken.NonceStore implementations.
//
// Every store keeps a nonce for a fixed retention window, reported by
// Retention, which must be at least the codec MaxAge: a token older than
// MaxAge is rejected as expired before the store is consulted, so forgetting
// its nonce afterwards is safe.
//
//   - Redis: SET NX with a TTL, shared across processes.
//   - Postgres: INSERT ... ON CONFLICT, shared across processes, pruned with Prune.
//   - Memory: in-process map, for tests and single-instance deployments.
package noncestore
