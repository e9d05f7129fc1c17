package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives cache keys for table queries.
//
// Contract:
// - Determinism: equal queries produce equal keys regardless of map order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(table string, query any) (string, error)
}

// QueryKeyer produces keys of the form <table>:<hash>, where hash is the
// first 8 bytes of SHA-256 over the JSON encoding of query. A nil query
// yields the bare table name.
type QueryKeyer struct{}

// NewQueryKeyer creates a QueryKeyer.
func NewQueryKeyer() *QueryKeyer {
	return &QueryKeyer{}
}

// Key derives the cache key. encoding/json sorts map keys, which makes the
// encoding canonical for maps and structs alike.
func (k *QueryKeyer) Key(table string, query any) (string, error) {
	if query == nil {
		return table, nil
	}
	raw, err := json.Marshal(query)
	if err != nil {
		return "", fmt.Errorf("cache: encode query for %s: %w", table, err)
	}
	sum := sha256.Sum256(raw)
	return table + ":" + hex.EncodeToString(sum[:8]), nil
}

// Ensure QueryKeyer implements Keyer
var _ Keyer = (*QueryKeyer)(nil)
