// Package cache is a small in-process TTL store memoizing successful
// upstream responses. It is single-instance, lossy across restarts, and
// performs no single-flight de-duplication: two concurrent misses for the
// same key will both call upstream and both populate the entry, which is an
// accepted inefficiency.
package cache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the staleness window for most endpoints; ProfileTTL is the
// tighter window for the current-user profile.
const (
	DefaultTTL = 60 * time.Second
	ProfileTTL = 30 * time.Second
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a mutex-guarded TTL map. Expired entries are evicted lazily on
// Get; there is no background sweep.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is injectable for tests.
	now func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewWithClock builds a cache with an injected clock for tests.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Set stores value until now + ttl.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the stored value when present and unexpired. An expired entry
// is evicted on the spot.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports the current entry count, including not-yet-evicted expired
// entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key builds a deterministic cache key from a namespace tag, the resolved
// identity and the forwarded query. Identical logical requests collide on
// the same key regardless of parameter arrival order; different identities
// or parameter sets never collide.
func Key(namespace string, userID int64, query url.Values) string {
	return strings.Join([]string{
		namespace,
		strconv.FormatInt(userID, 10),
		canonicalQuery(query),
	}, ":")
}

// canonicalQuery serializes non-empty parameters as a JSON object with
// sorted keys.
func canonicalQuery(query url.Values) string {
	if len(query) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		if strings.TrimSpace(query.Get(k)) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(k)
		valJSON, _ := json.Marshal(query.Get(k))
		fmt.Fprintf(&sb, "%s:%s", keyJSON, valJSON)
	}
	sb.WriteByte('}')
	return sb.String()
}
