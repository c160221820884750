package models

import "time"

// CacheEntry stores a previously generated answer keyed by query hash
// and query embedding. TTL is fixed at creation, not sliding; only the
// hit counter mutates after creation.
type CacheEntry struct {
	QueryHash  string      `json:"query_hash" bson:"query_hash"`
	QueryText  string      `json:"query_text" bson:"query_text"`
	Embedding  []float32   `json:"embedding,omitempty" bson:"embedding,omitempty"`
	Response   string      `json:"response" bson:"response"`
	Department string      `json:"department" bson:"department"`
	Sources    []SourceRef `json:"sources,omitempty" bson:"sources,omitempty"`
	CreatedAt  time.Time   `json:"created_at" bson:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at" bson:"expires_at"`
	HitCount   int64       `json:"hit_count" bson:"hit_count"`
}

// Expired reports whether the entry is past its TTL at the given time.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheStats summarizes cache effectiveness for the admin API.
type CacheStats struct {
	Entries      int     `json:"entries"`
	ExactHits    int64   `json:"exact_hits"`
	SemanticHits int64   `json:"semantic_hits"`
	Misses       int64   `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
}
