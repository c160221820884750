package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"onboarding-copilot/internal/logger"
	"onboarding-copilot/models"
	"onboarding-copilot/utils"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const cacheKeyPrefix = "semcache:"

// SemanticCache answers repeated questions without re-running the
// pipeline. Lookup is two tiers: an exact tier keyed by the SHA-256 of
// the normalized query, then a semantic tier comparing the query
// embedding against every stored entry's embedding. The in-memory
// index is authoritative; Redis, when configured, mirrors entries so
// the cache survives restarts.
type SemanticCache struct {
	rdb       *redis.Client
	embedder  Embedder
	threshold float64
	ttl       time.Duration
	maxSize   int

	mu      sync.RWMutex
	entries []*models.CacheEntry
	byHash  map[string]*models.CacheEntry

	exactHits    atomic.Int64
	semanticHits atomic.Int64
	misses       atomic.Int64

	nowFn func() time.Time
}

func NewSemanticCache(rdb *redis.Client, embedder Embedder, threshold float64, ttl time.Duration, maxSize int) *SemanticCache {
	return &SemanticCache{
		rdb:       rdb,
		embedder:  embedder,
		threshold: threshold,
		ttl:       ttl,
		maxSize:   maxSize,
		byHash:    make(map[string]*models.CacheEntry),
		nowFn:     time.Now,
	}
}

// Lookup returns the cached entry for the query, if any. An exact
// hash match wins; otherwise the query is embedded and compared
// against stored entries, and the best entry at or above the
// similarity threshold is returned. Embedding failures degrade to a
// miss so a cache probe never fails a request.
func (c *SemanticCache) Lookup(ctx context.Context, query string) *models.CacheEntry {
	normalized := utils.NormalizeQuery(query)
	hash := utils.QueryHash(query)
	now := c.nowFn()

	c.mu.RLock()
	entry, ok := c.byHash[hash]
	c.mu.RUnlock()
	if ok && !entry.Expired(now) {
		atomic.AddInt64(&entry.HitCount, 1)
		c.exactHits.Add(1)
		logger.Debug("Cache exact hit", "hash", hash[:12])
		return entry
	}

	queryVec, err := c.embedder.Embed(ctx, normalized)
	if err != nil {
		logger.Warn("Cache semantic probe skipped, embedding failed", "error", err)
		c.misses.Add(1)
		return nil
	}

	c.mu.RLock()
	var best *models.CacheEntry
	bestSim := 0.0
	for _, e := range c.entries {
		if e.Expired(now) {
			continue
		}
		sim := CosineSimilarity(queryVec, e.Embedding)
		if sim >= c.threshold && sim > bestSim {
			best = e
			bestSim = sim
		}
	}
	c.mu.RUnlock()

	if best != nil {
		atomic.AddInt64(&best.HitCount, 1)
		c.semanticHits.Add(1)
		logger.Debug("Cache semantic hit", "similarity", bestSim, "stored_query", best.QueryText)
		return best
	}

	c.misses.Add(1)
	return nil
}

// Store inserts a fully-built entry for the query. The entry is
// assembled, and its Redis payload marshaled, before the entry is
// published, so readers never observe a partial entry and the mirror
// write does not read fields that concurrent lookups mutate.
// Re-storing the same hash is last-write-wins.
func (c *SemanticCache) Store(ctx context.Context, query, response, department string, sources []models.SourceRef) {
	normalized := utils.NormalizeQuery(query)

	embedding, err := c.embedder.Embed(ctx, normalized)
	if err != nil {
		logger.Warn("Cache store skipped, embedding failed", "error", err)
		return
	}

	now := c.nowFn()
	entry := &models.CacheEntry{
		QueryHash:  utils.QueryHash(query),
		QueryText:  normalized,
		Embedding:  embedding,
		Response:   response,
		Department: department,
		Sources:    sources,
		CreatedAt:  now,
		ExpiresAt:  now.Add(c.ttl),
	}

	var payload []byte
	if c.rdb != nil {
		payload, err = json.Marshal(entry)
		if err != nil {
			logger.Warn("Cache mirror marshal failed", "error", err)
		}
	}

	c.mu.Lock()
	if old, ok := c.byHash[entry.QueryHash]; ok {
		c.removeLocked(old)
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.removeLocked(c.entries[0])
	}
	c.entries = append(c.entries, entry)
	c.byHash[entry.QueryHash] = entry
	c.mu.Unlock()

	c.mirror(ctx, entry.QueryHash, entry.ExpiresAt, payload)
}

// Invalidate drops every entry for the department, typically after a
// policy document is re-ingested. Returns the number removed.
func (c *SemanticCache) Invalidate(ctx context.Context, department string) int {
	c.mu.Lock()
	var removed []*models.CacheEntry
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.Department == department {
			removed = append(removed, e)
			delete(c.byHash, e.QueryHash)
		} else {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	c.mu.Unlock()

	if c.rdb != nil {
		for _, e := range removed {
			if err := c.rdb.Del(ctx, cacheKeyPrefix+e.QueryHash).Err(); err != nil {
				logger.Warn("Cache mirror delete failed", "error", err)
			}
		}
	}

	logger.Info("Cache invalidated", "department", department, "removed", len(removed))
	return len(removed)
}

// Sweep removes expired entries. Run periodically; expired entries
// are also ignored by Lookup, so the sweep only reclaims memory.
func (c *SemanticCache) Sweep() int {
	now := c.nowFn()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.Expired(now) {
			delete(c.byHash, e.QueryHash)
			removed++
		} else {
			kept = append(kept, e)
		}
	}
	c.entries = kept

	if removed > 0 {
		logger.Info("Cache sweep removed expired entries", "removed", removed, "remaining", len(kept))
	}
	return removed
}

// WarmUp restores mirrored entries from Redis after a restart.
func (c *SemanticCache) WarmUp(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}

	var restored int
	iter := c.rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		data, err := c.rdb.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var entry models.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			logger.Warn("Cache warm-up skipped corrupt entry", "key", iter.Val())
			continue
		}
		if entry.Expired(c.nowFn()) {
			continue
		}

		c.mu.Lock()
		if _, ok := c.byHash[entry.QueryHash]; !ok {
			e := entry
			c.entries = append(c.entries, &e)
			c.byHash[e.QueryHash] = &e
			restored++
		}
		c.mu.Unlock()
	}
	if err := iter.Err(); err != nil {
		return err
	}

	logger.Info("Cache warmed up from Redis", "restored", restored)
	return nil
}

// Stats reports cache effectiveness counters.
func (c *SemanticCache) Stats() models.CacheStats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	exact := c.exactHits.Load()
	semantic := c.semanticHits.Load()
	misses := c.misses.Load()
	total := exact + semantic + misses

	stats := models.CacheStats{
		Entries:      size,
		ExactHits:    exact,
		SemanticHits: semantic,
		Misses:       misses,
	}
	if total > 0 {
		stats.HitRate = float64(exact+semantic) / float64(total)
	}
	return stats
}

func (c *SemanticCache) removeLocked(target *models.CacheEntry) {
	delete(c.byHash, target.QueryHash)
	for i, e := range c.entries {
		if e == target {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

func (c *SemanticCache) mirror(ctx context.Context, hash string, expiresAt time.Time, payload []byte) {
	if c.rdb == nil || payload == nil {
		return
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+hash, payload, ttl).Err(); err != nil {
		logger.Warn("Cache mirror write failed", "error", err)
	}
}
