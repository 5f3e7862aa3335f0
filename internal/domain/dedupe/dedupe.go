// Package dedupe tracks submission request ids so that a retried request
// maps onto the job it already created.
package dedupe

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Defaults for the in-memory deduper.
const (
	DefaultTTL     = 10 * time.Minute
	DefaultMaxSize = 50000
)

// Deduper records seen request ids together with the job they created.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records jobID for
	// it if not. When id was already seen it returns the recorded job id
	// and true.
	SeenAndRecord(ctx context.Context, id, jobID string) (string, bool)

	// Unrecord forgets id so the request can be retried, e.g. after the
	// queue rejected it.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps ids in a TTL cache. With maxSize > 0 the entry
// closest to expiry is evicted when the cache is full.
type inMemoryDeduper struct {
	mu      sync.Mutex
	cache   *gocache.Cache
	ttl     time.Duration
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		ttl:     DefaultTTL,
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cache = gocache.New(d.ttl, cleanupInterval(d.ttl))
	return d
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return max(ttl/2, time.Second)
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if v, ok := d.cache.Get(id); ok {
		return v.(string), true
	}
	if d.maxSize > 0 && d.cache.ItemCount() >= d.maxSize {
		d.cache.DeleteExpired()
		if d.cache.ItemCount() >= d.maxSize {
			d.evictOldest()
		}
	}
	d.cache.Set(id, jobID, gocache.DefaultExpiration)
	return jobID, false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Delete(id)
}

func (d *inMemoryDeduper) Size() int64 {
	return int64(d.cache.ItemCount())
}

// evictOldest drops the entry that expires first. Caller holds mu.
func (d *inMemoryDeduper) evictOldest() {
	var (
		oldest string
		at     int64
		found  bool
	)
	for k, item := range d.cache.Items() {
		if !found || item.Expiration < at {
			oldest, at, found = k, item.Expiration, true
		}
	}
	if found {
		d.cache.Delete(oldest)
	}
}
