package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"onboarding-copilot/internal/logger"
	"onboarding-copilot/models"
)

// ErrCorpusUnavailable is returned when the chunk store cannot be
// reached or holds no chunks.
var ErrCorpusUnavailable = errors.New("corpus unavailable")

// Store holds the document-chunk corpus. Chunks are loaded from
// MongoDB once at startup and treated as immutable; all per-request
// access is read-only and concurrency-safe.
type Store struct {
	collection *mongo.Collection
	vectorDim  int

	mu     sync.RWMutex
	chunks []*models.DocumentChunk
	byID   map[string]*models.DocumentChunk
}

func NewStore(db *mongo.Database, vectorDim int) *Store {
	return &Store{
		collection: db.Collection("chunks"),
		vectorDim:  vectorDim,
		byID:       make(map[string]*models.DocumentChunk),
	}
}

// ValidateEmbeddings verifies every chunk's embedding has the expected
// dimension. Mixed or truncated vectors silently skew cosine scores, so
// mismatches fail loudly. A non-positive dim disables the check.
func ValidateEmbeddings(dim int, chunks []*models.DocumentChunk) error {
	if dim <= 0 {
		return nil
	}
	for _, chunk := range chunks {
		if got := len(chunk.Embedding); got != dim {
			return fmt.Errorf("chunk %s from %s: embedding dimension %d, want %d", chunk.ChunkID, chunk.Source, got, dim)
		}
	}
	return nil
}

// Load reads all chunks from MongoDB into memory, assigning corpus
// insertion ordinals in (source, order) sequence.
func (s *Store) Load(ctx context.Context) error {
	findOpts := options.Find().SetSort(bson.D{{Key: "source", Value: 1}, {Key: "order", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}
	defer cursor.Close(ctx)

	var chunks []*models.DocumentChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}

	if len(chunks) == 0 {
		return fmt.Errorf("%w: chunk store is empty, run the ingest command first", ErrCorpusUnavailable)
	}

	if err := ValidateEmbeddings(s.vectorDim, chunks); err != nil {
		return fmt.Errorf("%w: %v", ErrCorpusUnavailable, err)
	}

	byID := make(map[string]*models.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		chunk.Ordinal = i
		byID[chunk.ChunkID] = chunk
	}

	s.mu.Lock()
	s.chunks = chunks
	s.byID = byID
	s.mu.Unlock()

	logger.Info("Corpus loaded", "chunks", len(chunks))
	return nil
}

// Chunks returns the full corpus in insertion order.
func (s *Store) Chunks() []*models.DocumentChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks
}

// Get returns the chunk with the given ID if it exists.
func (s *Store) Get(chunkID string) (*models.DocumentChunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.byID[chunkID]
	return chunk, ok
}

// Count returns the number of loaded chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Stats summarizes the corpus for the admin API.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDepartment := make(map[string]int)
	sources := make(map[string]struct{})
	for _, chunk := range s.chunks {
		byDepartment[chunk.Department]++
		sources[chunk.Source] = struct{}{}
	}

	return map[string]interface{}{
		"total_chunks":  len(s.chunks),
		"by_department": byDepartment,
		"documents":     len(sources),
	}
}

// InsertChunks writes freshly ingested chunks to MongoDB. Used by the
// ingest command only; the online path never mutates the corpus.
func (s *Store) InsertChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	refs := make([]*models.DocumentChunk, len(chunks))
	for i := range chunks {
		refs[i] = &chunks[i]
	}
	if err := ValidateEmbeddings(s.vectorDim, refs); err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, chunk)
	}

	_, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// Drop removes all chunks. Used by the ingest command's -drop flag.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.collection.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop chunk collection: %w", err)
	}
	return nil
}
