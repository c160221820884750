package services

import (
	"math"
	"sort"
	"sync"

	"onboarding-copilot/models"
)

// DenseHit is a cosine-similarity match for a single chunk.
type DenseHit struct {
	Chunk      *models.DocumentChunk
	Similarity float64
}

// VectorIndex is a brute-force cosine-similarity index over chunk
// embeddings, partitioned by department. At corpus scale (hundreds of
// chunks per department) an exact scan beats approximate structures.
type VectorIndex struct {
	mu   sync.RWMutex
	docs map[string][]*models.DocumentChunk
}

func NewVectorIndex() *VectorIndex {
	return &VectorIndex{docs: make(map[string][]*models.DocumentChunk)}
}

// Add indexes chunks under their departments. Chunks without an
// embedding are skipped.
func (idx *VectorIndex) Add(chunks []*models.DocumentChunk) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		idx.docs[chunk.Department] = append(idx.docs[chunk.Department], chunk)
	}
}

// Search returns up to k chunks most similar to the query vector,
// best first. Ties break toward the earlier corpus ordinal.
func (idx *VectorIndex) Search(queryVec []float32, k int, department string) []DenseHit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docs := idx.docs[department]
	if len(docs) == 0 || k <= 0 || len(queryVec) == 0 {
		return nil
	}

	hits := make([]DenseHit, 0, len(docs))
	for _, chunk := range docs {
		sim := CosineSimilarity(queryVec, chunk.Embedding)
		hits = append(hits, DenseHit{Chunk: chunk, Similarity: sim})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.Ordinal < hits[j].Chunk.Ordinal
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// CosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
