// Package cache provides a TTL cache layered over a persistent key/value
// store.
//
// Entries are JSON envelopes {data, expiry, timestamp} stored under a fixed
// prefix. Expiry is checked lazily on read. Store and codec failures never
// reach callers: they are logged, counted, and reported as cache misses.
// Loader adds a cache-first read path with a coalesced background refresh.
package cache
