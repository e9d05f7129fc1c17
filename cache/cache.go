package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/vendora/observe"
	"github.com/jonwraymond/vendora/store"
)

// DefaultPrefix namespaces cache entries inside the store.
const DefaultPrefix = "vendora_cache_"

// Cache is a TTL cache over a store.Store.
//
// Contract:
//   - Concurrency: safe for concurrent use; overlapping Sets on one key are
//     last-writer-wins.
//   - Errors: no method returns a store or codec error. Failures surface as
//     misses and are reported through the logger and the faults counter.
type Cache struct {
	store   store.Store
	prefix  string
	policy  Policy
	now     func() time.Time
	logger  observe.Logger
	meter   metric.Meter
	metrics *cacheMetrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(c *Cache) { c.policy = p }
}

// WithClock injects the time source used for expiry and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for swallowed faults.
func WithLogger(l observe.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithMeter records hit, miss, expiration and fault counters on meter.
func WithMeter(m metric.Meter) Option {
	return func(c *Cache) { c.meter = m }
}

// New creates a Cache over s.
func New(s store.Store, opts ...Option) (*Cache, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	c := &Cache{
		store:  s,
		prefix: DefaultPrefix,
		policy: DefaultPolicy(),
		now:    time.Now,
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	m, err := newCacheMetrics(c.meter)
	if err != nil {
		return nil, err
	}
	c.metrics = m
	c.logger = c.logger.With(observe.Field{Key: "component", Value: "cache"})
	return c, nil
}

// Prefix returns the key prefix in use.
func (c *Cache) Prefix() string {
	return c.prefix
}

// Set stores data under key for ttl. A ttl <= 0 uses the policy default.
// Failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, data any, ttl time.Duration) {
	if f := c.write(ctx, key, data, ttl); f != nil {
		c.report(ctx, f)
	}
}

func (c *Cache) write(ctx context.Context, key string, data any, ttl time.Duration) *Fault {
	raw, err := json.Marshal(data)
	if err != nil {
		return &Fault{Op: "set", Key: key, Kind: FaultEncode, Err: err}
	}

	now := c.now()
	entry := Entry{
		Data:      raw,
		Expiry:    now.Add(c.policy.EffectiveTTL(ttl)).UnixMilli(),
		Timestamp: now.UnixMilli(),
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return &Fault{Op: "set", Key: key, Kind: FaultEncode, Err: err}
	}

	if err := c.store.Set(ctx, c.prefix+key, string(encoded)); err != nil {
		return &Fault{Op: "set", Key: key, Kind: FaultStore, Err: err}
	}
	return nil
}

// Get returns the cached data for key. It reports false when the entry is
// absent, unreadable or expired; expired entries are removed.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	entry, found, f := c.lookup(ctx, key)
	switch {
	case f != nil:
		c.report(ctx, f)
		c.metrics.misses.Add(ctx, 1)
		return nil, false
	case !found:
		c.metrics.misses.Add(ctx, 1)
		return nil, false
	}

	if entry.Expired(c.now()) {
		c.metrics.expirations.Add(ctx, 1)
		c.metrics.misses.Add(ctx, 1)
		c.Remove(ctx, key)
		return nil, false
	}

	c.metrics.hits.Add(ctx, 1)
	return entry.Data, true
}

// GetAs decodes the cached data for key into T with Get's miss semantics.
// Data that does not decode into T is a miss.
func GetAs[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var out T
	raw, ok := c.Get(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.report(ctx, &Fault{Op: "get", Key: key, Kind: FaultDecode, Err: err})
		var zero T
		return zero, false
	}
	return out, true
}

// lookup reads and decodes one entry without applying expiry.
func (c *Cache) lookup(ctx context.Context, key string) (Entry, bool, *Fault) {
	raw, ok, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		return Entry{}, false, &Fault{Op: "get", Key: key, Kind: FaultStore, Err: err}
	}
	if !ok {
		return Entry{}, false, nil
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return Entry{}, false, &Fault{Op: "get", Key: key, Kind: FaultDecode, Err: err}
	}
	if entry.Data == nil {
		return Entry{}, false, &Fault{Op: "get", Key: key, Kind: FaultDecode, Err: errMissingData}
	}
	return entry, true, nil
}

// Remove deletes one entry regardless of its expiry.
func (c *Cache) Remove(ctx context.Context, key string) {
	if err := c.store.Remove(ctx, c.prefix+key); err != nil {
		c.report(ctx, &Fault{Op: "remove", Key: key, Kind: FaultStore, Err: err})
	}
}

// ClearAll deletes every entry under the prefix and returns how many were
// removed.
func (c *Cache) ClearAll(ctx context.Context) int {
	keys, err := c.store.Keys(ctx, c.prefix)
	if err != nil {
		c.report(ctx, &Fault{Op: "clear", Key: c.prefix, Kind: FaultStore, Err: err})
		return 0
	}

	removed := 0
	for _, full := range keys {
		if err := c.store.Remove(ctx, full); err != nil {
			c.report(ctx, &Fault{Op: "clear", Key: strings.TrimPrefix(full, c.prefix), Kind: FaultStore, Err: err})
			continue
		}
		removed++
	}
	return removed
}

// EntryInfo describes one stored entry for inspection.
type EntryInfo struct {
	Key       string
	Age       time.Duration
	ExpiresIn time.Duration
	Expired   bool
}

// Describe lists the entries under the prefix, sorted by key, without
// evicting expired ones. Unreadable entries are reported as faults and
// skipped.
func (c *Cache) Describe(ctx context.Context) []EntryInfo {
	keys, err := c.store.Keys(ctx, c.prefix)
	if err != nil {
		c.report(ctx, &Fault{Op: "describe", Key: c.prefix, Kind: FaultStore, Err: err})
		return nil
	}
	sort.Strings(keys)

	now := c.now()
	infos := make([]EntryInfo, 0, len(keys))
	for _, full := range keys {
		key := strings.TrimPrefix(full, c.prefix)
		entry, ok, fault := c.lookup(ctx, key)
		if fault != nil {
			c.report(ctx, fault)
			continue
		}
		if !ok {
			continue
		}
		infos = append(infos, EntryInfo{
			Key:       key,
			Age:       entry.Age(now),
			ExpiresIn: time.Duration(entry.Expiry-now.UnixMilli()) * time.Millisecond,
			Expired:   entry.Expired(now),
		})
	}
	return infos
}

func (c *Cache) report(ctx context.Context, f *Fault) {
	c.metrics.fault(ctx, f)
	c.logger.Warn(ctx, "cache fault",
		observe.Field{Key: "op", Value: f.Op},
		observe.Field{Key: "key", Value: f.Key},
		observe.Field{Key: "kind", Value: string(f.Kind)},
		observe.Err(f.Err),
	)
}
