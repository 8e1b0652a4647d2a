// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package cache

import (
	"container/list"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/amica-social/amica/internal/metrics"
)

// Entry represents a cached item with expiration.
//
// An Entry is immutable once published into the map: updates replace the
// whole entry rather than mutating fields, so Get may read an entry after
// dropping the read lock without tearing.
type Entry struct {
	Data       interface{}
	InsertedAt time.Time
	ExpiresAt  time.Time

	// elem is the entry's node in the insertion-order list.
	elem *list.Element
}

// Cache provides a thread-safe, bounded in-memory cache with TTL support.
//
// Eviction is FIFO by insertion order, not LRU: eviction needs no per-access
// bookkeeping and stays O(1). Expired entries are purged lazily on access and
// proactively by Sweep, which the supervised sweeper calls on a fixed
// interval. The cache owns no goroutines; lifecycle is the caller's.
type Cache struct {
	mu       sync.RWMutex
	name     string
	entries  map[string]*Entry
	order    *list.List // front = oldest inserted
	capacity int
	ttl      time.Duration
	stats    Stats
}

// Stats tracks cache performance counters.
type Stats struct {
	mu        sync.RWMutex
	Hits      int64
	Misses    int64
	Evictions int64
	LastSweep time.Time
}

// New creates a bounded TTL cache.
//
// Parameters:
//   - name: label used for metrics (e.g. "messages", "media")
//   - capacity: maximum number of entries; inserting beyond it evicts the
//     oldest-inserted entry first
//   - ttl: default expiration for entries
//
// Thread Safety: safe for concurrent use from multiple goroutines.
func New(name string, capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Cache{
		name:     name,
		entries:  make(map[string]*Entry, capacity),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get retrieves a value from the cache by key.
//
// Returns (nil, false) for keys that were never inserted and for keys whose
// entry has expired; an expired entry is removed on access. Returns
// (data, true) for a live entry.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		// Lazy expiry: purge on access. Re-check under the write lock since
		// a concurrent Set may have replaced the entry.
		c.mu.Lock()
		purged := false
		if cur, ok := c.entries[key]; ok && cur == entry {
			c.removeLocked(key, cur)
			purged = true
		}
		c.mu.Unlock()
		c.recordMiss()
		if purged {
			c.recordEvictions(1)
		}
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set inserts or replaces a value with the default TTL.
// Replacing an existing key refreshes both its expiry and its insertion
// position, so a re-inserted key is no longer first in line for eviction.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL inserts or replaces a value with a custom TTL.
// If inserting a new key would exceed capacity, the oldest-inserted entry is
// evicted first.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		// Replace wholesale rather than mutating in place: the old entry
		// may still be read by a Get that has dropped the read lock.
		fresh := &Entry{
			Data:       value,
			InsertedAt: now,
			ExpiresAt:  now.Add(ttl),
			elem:       existing.elem,
		}
		c.entries[key] = fresh
		c.order.MoveToBack(fresh.elem)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	entry := &Entry{
		Data:       value,
		InsertedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	entry.elem = c.order.PushBack(key)
	c.entries[key] = entry
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Invalidate removes a key unconditionally.
// No-op if the key is absent.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.removeLocked(key, entry)
	}
	c.mu.Unlock()
}

// Len returns the current number of entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes all entries expired as of now and returns the number removed.
// Entries whose expiry is at or after now are never touched.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			c.removeLocked(key, entry)
			removed++
		}
	}
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += int64(removed)
	c.stats.LastSweep = now
	c.stats.mu.Unlock()
	metrics.RecordCacheEviction(c.name, removed)

	return removed
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:      c.stats.Hits,
		Misses:    c.stats.Misses,
		Evictions: c.stats.Evictions,
		LastSweep: c.stats.LastSweep,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// evictOldestLocked removes the oldest-inserted entry.
// Must be called with the write lock held.
func (c *Cache) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key := front.Value.(string)
	if entry, ok := c.entries[key]; ok {
		c.removeLocked(key, entry)
	}
	c.recordEvictions(1)
}

// removeLocked unlinks an entry from both the map and the order list.
// Must be called with the write lock held.
func (c *Cache) removeLocked(key string, entry *Entry) {
	delete(c.entries, key)
	c.order.Remove(entry.elem)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.RecordCacheHit(c.name)
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.RecordCacheMiss(c.name)
}

func (c *Cache) recordEvictions(n int) {
	c.stats.mu.Lock()
	c.stats.Evictions += int64(n)
	c.stats.mu.Unlock()
	metrics.RecordCacheEviction(c.name, n)
}

// GenerateKey creates a cache key from a method name and parameters.
// Parameters are serialized to JSON and hashed for a compact, stable key.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
