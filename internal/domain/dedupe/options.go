package dedupe

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of ids to keep in memory.
// If maxSize <= 0 the deduper is bounded only by the TTL.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithTTL sets how long a request id is remembered. A ttl <= 0 keeps ids
// until they are unrecorded.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryDeduper) {
		if ttl <= 0 {
			ttl = gocache.NoExpiration
		}
		d.ttl = ttl
	}
}
