package ai

import (
	"container/list"
	"context"
	"sync"
)

// Backend is the raw embedding provider. *Client satisfies it.
type Backend interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingService wraps an embedding backend with a bounded LRU cache
// keyed by exact text. A cache hit never touches the backend. The
// cache is shared across requests; entries are copied on read so that
// eviction cannot corrupt a vector mid-use.
type EmbeddingService struct {
	backend  Backend
	capacity int

	mu      sync.Mutex
	order   *list.List // front = most recently used
	entries map[string]*list.Element

	hits   int64
	misses int64
}

type embedEntry struct {
	text   string
	vector []float32
}

func NewEmbeddingService(backend Backend, capacity int) *EmbeddingService {
	if capacity < 1 {
		capacity = 1
	}
	return &EmbeddingService{
		backend:  backend,
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Embed returns the embedding for text, consulting the LRU cache
// first. On backend failure the error propagates unchanged; a zero
// vector is never substituted.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := s.lookup(text); ok {
		return vec, nil
	}

	vec, err := s.backend.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	s.insert(text, vec)
	return copyVector(vec), nil
}

func (s *EmbeddingService) lookup(text string) ([]float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[text]
	if !ok {
		s.misses++
		return nil, false
	}
	s.order.MoveToFront(elem)
	s.hits++
	return copyVector(elem.Value.(*embedEntry).vector), true
}

func (s *EmbeddingService) insert(text string, vector []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[text]; ok {
		s.order.MoveToFront(elem)
		return
	}

	elem := s.order.PushFront(&embedEntry{text: text, vector: copyVector(vector)})
	s.entries[text] = elem

	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*embedEntry).text)
	}
}

// Stats returns hit/miss counters and current size.
func (s *EmbeddingService) Stats() (hits, misses int64, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses, s.order.Len()
}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
