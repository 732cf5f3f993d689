package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/toolhub/observe"
)

// LoadFunc fetches a fresh value for a cache miss or refresh.
type LoadFunc func(ctx context.Context) (any, error)

// Result describes how Load produced its value.
type Result struct {
	Value any

	// Cached is true when Value came from the pool.
	Cached bool

	// Refreshing is true when a cached value was past the refresh
	// threshold and a background reload was started.
	Refreshing bool
}

// Loader reads through a Pool.
//
// Hits are served from memory. Misses call the LoadFunc once per subject
// no matter how many callers are waiting. A hit past the refresh threshold
// is served immediately and reloaded in the background.
// Errors and nil values are not cached.
type Loader struct {
	pool      *Pool
	threshold float64
	logger    observe.Logger

	group singleflight.Group
	wg    sync.WaitGroup
}

// NewLoader creates a Loader. A threshold outside (0, 1) uses the pool default.
func NewLoader(pool *Pool, threshold float64, logger observe.Logger) *Loader {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Loader{pool: pool, threshold: threshold, logger: logger}
}

// Pool returns the underlying pool.
func (l *Loader) Pool() *Pool {
	return l.pool
}

// Load returns the cached value for subject or loads it with fn.
// force skips the lookup and always calls fn. A caller whose ctx ends
// stops waiting with ctx.Err(); the shared load carries on for the others
// and still fills the pool.
func (l *Loader) Load(ctx context.Context, namespace, subject string, force bool, fn LoadFunc) (Result, error) {
	if !force {
		if e, ok := l.pool.Lookup(ctx, namespace, subject); ok {
			res := Result{Value: e.Value, Cached: true}
			if l.pool.NeedsRefresh(e, l.threshold) {
				l.refresh(ctx, namespace, subject, fn)
				res.Refreshing = true
			}
			return res, nil
		}
	}

	// The fetch is shared by every waiting caller, so one caller giving up
	// must not cancel it for the rest.
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(flightKey(namespace, subject), func() (any, error) {
		return l.fetch(shared, namespace, subject, fn)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return Result{Value: r.Val}, nil
	}
}

// Wait blocks until every background refresh has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

func (l *Loader) fetch(ctx context.Context, namespace, subject string, fn LoadFunc) (any, error) {
	v, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if v != nil {
		l.pool.Put(ctx, namespace, subject, v)
	}
	return v, nil
}

func (l *Loader) refresh(ctx context.Context, namespace, subject string, fn LoadFunc) {
	// The caller's request may finish before the reload does.
	bg := context.WithoutCancel(ctx)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		_, err, _ := l.group.Do("refresh\x00"+flightKey(namespace, subject), func() (any, error) {
			return l.fetch(bg, namespace, subject, fn)
		})
		if err != nil {
			l.logger.Warn(bg, "background cache refresh failed",
				observe.F("cache.namespace", namespace),
				observe.F("cache.subject", subject),
				observe.Err(err),
			)
			return
		}
		l.logger.Debug(bg, "background cache refresh completed",
			observe.F("cache.namespace", namespace),
			observe.F("cache.subject", subject),
		)
	}()
}

func flightKey(namespace, subject string) string {
	return namespace + "\x00" + subject
}
