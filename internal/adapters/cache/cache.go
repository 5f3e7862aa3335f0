// Package cache memoizes appraisal reports by a fingerprint of the catalog
// and the policy that produced them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/royalty/internal/domain/model"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a report stays cached.
const DefaultTTL = 5 * time.Minute

// ReportCache is an in-memory TTL cache of reports.
type ReportCache struct {
	cache *gocache.Cache
}

// New creates a cache whose entries expire after ttl. A ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReportCache{cache: gocache.New(ttl, 2*ttl)}
}

// Get returns a copy of the cached report for key.
func (c *ReportCache) Get(key string) (model.Report, bool) {
	if v, found := c.cache.Get(key); found {
		return v.(model.Report).Clone(), true
	}
	return model.Report{}, false
}

// Set stores a copy of report under key with the default TTL.
func (c *ReportCache) Set(key string, report model.Report) {
	c.cache.Set(key, report.Clone(), gocache.DefaultExpiration)
}

// Len returns the number of cached entries, including expired entries not
// yet collected.
func (c *ReportCache) Len() int {
	return c.cache.ItemCount()
}

// Flush removes every entry.
func (c *ReportCache) Flush() {
	c.cache.Flush()
}

// Fingerprint returns a stable key for the given values: the hex sha256 of
// their JSON encoding. Map keys are sorted by encoding/json, so equal
// inputs always hash equally.
func Fingerprint(values ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for i, v := range values {
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("fingerprint value %d: %w", i, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
