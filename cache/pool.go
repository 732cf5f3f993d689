package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/toolhub/observe"
)

// Entry is one cached value. Entries are replaced wholesale by Put and
// never mutated in place.
type Entry struct {
	Value     any
	Namespace string
	Subject   string
	Key       string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TTL returns the lifetime the entry was stored with.
func (e Entry) TTL() time.Duration {
	return e.ExpiresAt.Sub(e.CreatedAt)
}

// Expired reports whether the entry is logically absent at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Recorder receives pool lookup and eviction events.
// observe.CacheMetrics implements it.
type Recorder interface {
	Hit(ctx context.Context, namespace string)
	Miss(ctx context.Context, namespace string)
	Evicted(ctx context.Context, n int)
}

type nopRecorder struct{}

func (nopRecorder) Hit(context.Context, string)  {}
func (nopRecorder) Miss(context.Context, string) {}
func (nopRecorder) Evicted(context.Context, int) {}

// Option configures a Pool.
type Option func(*Pool)

// WithClock replaces time.Now. Tests use it to move time deterministically.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(l observe.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pool) {
		if r != nil {
			p.recorder = r
		}
	}
}

// accessMark ranks a key for eviction. seq breaks ties between equal
// timestamps so eviction order is deterministic.
type accessMark struct {
	at  time.Time
	seq uint64
}

type counters struct {
	hits   uint64
	misses uint64
}

// Pool is an expiring, size-bounded, namespaced cache.
//
// Contract:
//   - Concurrency: safe for concurrent use. One mutex covers the entry
//     store, the access index and eviction.
//   - Errors: lookups never fail; absence is a normal result. Using a
//     namespace that was not configured panics.
type Pool struct {
	cfg        Config
	namespaces map[string]Namespace

	now      func() time.Time
	logger   observe.Logger
	recorder Recorder

	mu        sync.Mutex
	entries   map[string]*Entry
	access    map[string]accessMark
	seq       uint64
	stats     map[string]*counters
	evictions uint64
}

// NewPool validates cfg and returns an empty pool.
func NewPool(cfg Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:        cfg,
		namespaces: make(map[string]Namespace, len(cfg.Namespaces)),
		now:        time.Now,
		logger:     observe.NopLogger(),
		recorder:   nopRecorder{},
		entries:    make(map[string]*Entry),
		access:     make(map[string]accessMark),
		stats:      make(map[string]*counters, len(cfg.Namespaces)),
	}
	for _, ns := range cfg.Namespaces {
		p.namespaces[ns.Name] = ns
		p.stats[ns.Name] = &counters{}
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger.Info(context.Background(), "cache pool initialized",
		observe.F("max_entries", cfg.MaxEntries),
		observe.F("namespaces", len(cfg.Namespaces)),
		observe.F("refresh_hint", cfg.EnableRefreshHint),
	)
	return p, nil
}

// Config returns the configuration the pool was built with.
func (p *Pool) Config() Config {
	return p.cfg
}

// Namespace returns the named namespace definition.
func (p *Pool) Namespace(name string) (Namespace, bool) {
	ns, ok := p.namespaces[name]
	return ns, ok
}

func (p *Pool) mustNamespace(name string) Namespace {
	ns, ok := p.namespaces[name]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownNamespace, name))
	}
	return ns
}

// Get returns the value cached for subject in namespace.
func (p *Pool) Get(ctx context.Context, namespace, subject string) (any, bool) {
	e, ok := p.Lookup(ctx, namespace, subject)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Lookup is Get returning the whole entry, for callers that need its
// timestamps (NeedsRefresh).
//
// A hit bumps the key's access time. A miss removes a present but expired
// entry.
func (p *Pool) Lookup(ctx context.Context, namespace, subject string) (Entry, bool) {
	ns := p.mustNamespace(namespace)

	p.mu.Lock()
	now := p.now()
	key := ns.Key(subject, now)
	e, ok := p.entries[key]
	if ok && !e.Expired(now) {
		p.stats[namespace].hits++
		p.touchLocked(key, now)
		out := *e
		p.mu.Unlock()

		p.recorder.Hit(ctx, namespace)
		p.logger.Debug(ctx, "cache hit", observe.F("cache.key", key))
		return out, true
	}
	if ok {
		p.removeLocked(key)
	}
	p.stats[namespace].misses++
	p.mu.Unlock()

	p.recorder.Miss(ctx, namespace)
	p.logger.Debug(ctx, "cache miss", observe.F("cache.key", key), observe.F("expired", ok))
	return Entry{}, false
}

// Put stores value for subject, replacing any entry under the same key,
// then evicts least-recently-used entries until the pool is within capacity.
// The entry just written is never evicted by its own Put.
func (p *Pool) Put(ctx context.Context, namespace, subject string, value any) Entry {
	ns := p.mustNamespace(namespace)

	p.mu.Lock()
	now := p.now()
	key := ns.Key(subject, now)
	e := &Entry{
		Value:     value,
		Namespace: namespace,
		Subject:   subject,
		Key:       key,
		CreatedAt: now,
		ExpiresAt: now.Add(ns.TTL),
	}
	p.entries[key] = e
	p.touchLocked(key, now)
	evicted := p.evictLocked(key)
	out := *e
	p.mu.Unlock()

	p.logger.Debug(ctx, "cache put",
		observe.F("cache.key", key),
		observe.F("expires_at", out.ExpiresAt.Format(time.RFC3339)),
	)
	if len(evicted) > 0 {
		p.recorder.Evicted(ctx, len(evicted))
		for _, k := range evicted {
			p.logger.Debug(ctx, "cache evicted", observe.F("cache.key", k))
		}
	}
	return out
}

// NeedsRefresh reports whether more than threshold of e's TTL has elapsed.
// A threshold outside (0, 1) falls back to the configured default. It is
// always false when the refresh hint is disabled.
func (p *Pool) NeedsRefresh(e Entry, threshold float64) bool {
	if !p.cfg.EnableRefreshHint {
		return false
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = p.cfg.RefreshThreshold
	}
	ttl := e.TTL()
	if ttl <= 0 {
		return true
	}
	elapsed := p.now().Sub(e.CreatedAt)
	return float64(elapsed)/float64(ttl) > threshold
}

// ClearAll drops every entry. Stats are kept.
func (p *Pool) ClearAll(ctx context.Context) {
	p.mu.Lock()
	n := len(p.entries)
	p.entries = make(map[string]*Entry)
	p.access = make(map[string]accessMark)
	p.mu.Unlock()

	p.logger.Info(ctx, "cache cleared", observe.F("removed", n))
}

// ClearExpired removes every expired entry and returns how many were removed.
// Unexpired entries and stats are untouched.
func (p *Pool) ClearExpired(ctx context.Context) int {
	p.mu.Lock()
	now := p.now()
	removed := 0
	for key, e := range p.entries {
		if e.Expired(now) {
			p.removeLocked(key)
			removed++
		}
	}
	p.mu.Unlock()

	if removed > 0 {
		p.logger.Info(ctx, "expired cache entries removed", observe.F("removed", removed))
	}
	return removed
}

// Len returns the number of physically present entries, expired or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *Pool) touchLocked(key string, now time.Time) {
	p.seq++
	p.access[key] = accessMark{at: now, seq: p.seq}
}

func (p *Pool) removeLocked(key string) {
	delete(p.entries, key)
	delete(p.access, key)
}

// evictLocked removes the oldest entries until len(entries) <= MaxEntries,
// skipping keep. It returns the removed keys, oldest first.
func (p *Pool) evictLocked(keep string) []string {
	over := len(p.entries) - p.cfg.MaxEntries
	if over <= 0 {
		return nil
	}

	type ranked struct {
		key  string
		mark accessMark
	}
	candidates := make([]ranked, 0, len(p.access))
	for k, m := range p.access {
		if k == keep {
			continue
		}
		candidates = append(candidates, ranked{key: k, mark: m})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].mark, candidates[j].mark
		if a.at.Equal(b.at) {
			return a.seq < b.seq
		}
		return a.at.Before(b.at)
	})

	if over > len(candidates) {
		over = len(candidates)
	}
	removed := make([]string, 0, over)
	for _, c := range candidates[:over] {
		p.removeLocked(c.key)
		p.evictions++
		removed = append(removed, c.key)
	}
	return removed
}
