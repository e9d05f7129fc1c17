// Package store provides the persistent key/value stores the client cache and
// session manager write through.
//
// A Store holds opaque string values under string keys and can enumerate its
// keys by prefix, which is all the cache needs to namespace its entries and to
// clear them in bulk. Four backends are provided:
//
//   - MemoryStore: process-local map, the default for tests and short-lived use.
//   - SQLiteStore: a single-file database, the default for the CLI.
//   - RedisStore: a shared Redis/KeyDB instance.
//   - BigCacheStore: a bounded in-memory store for long-running processes.
package store
