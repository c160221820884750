package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-copilot/models"
)

func embeddedChunk(id, dept string, ordinal int, vec []float32) *models.DocumentChunk {
	return &models.DocumentChunk{ChunkID: id, Department: dept, Ordinal: ordinal, Embedding: vec}
}

func TestVectorSearchOrdersBySimilarity(t *testing.T) {
	idx := NewVectorIndex()
	idx.Add([]*models.DocumentChunk{
		embeddedChunk("x", models.DepartmentIT, 0, []float32{1, 0, 0}),
		embeddedChunk("y", models.DepartmentIT, 1, []float32{0.7, 0.7, 0}),
		embeddedChunk("z", models.DepartmentIT, 2, []float32{0, 1, 0}),
	})

	hits := idx.Search([]float32{1, 0, 0}, 3, models.DepartmentIT)
	require.Len(t, hits, 3)
	assert.Equal(t, "x", hits[0].Chunk.ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "y", hits[1].Chunk.ChunkID)
	assert.Equal(t, "z", hits[2].Chunk.ChunkID)
}

func TestVectorSearchTruncatesAndScopes(t *testing.T) {
	idx := NewVectorIndex()
	idx.Add([]*models.DocumentChunk{
		embeddedChunk("it", models.DepartmentIT, 0, []float32{1, 0}),
		embeddedChunk("hr", models.DepartmentHR, 1, []float32{1, 0}),
	})

	hits := idx.Search([]float32{1, 0}, 5, models.DepartmentHR)
	require.Len(t, hits, 1)
	assert.Equal(t, "hr", hits[0].Chunk.ChunkID)

	assert.Empty(t, idx.Search([]float32{1, 0}, 0, models.DepartmentIT))
	assert.Empty(t, idx.Search(nil, 5, models.DepartmentIT))
}

func TestVectorSearchTieBreaksByOrdinal(t *testing.T) {
	idx := NewVectorIndex()
	idx.Add([]*models.DocumentChunk{
		embeddedChunk("later", models.DepartmentIT, 7, []float32{1, 0}),
		embeddedChunk("earlier", models.DepartmentIT, 2, []float32{1, 0}),
	})

	hits := idx.Search([]float32{1, 0}, 2, models.DepartmentIT)
	require.Len(t, hits, 2)
	assert.Equal(t, "earlier", hits[0].Chunk.ChunkID)
}

func TestVectorIndexSkipsChunksWithoutEmbeddings(t *testing.T) {
	idx := NewVectorIndex()
	idx.Add([]*models.DocumentChunk{
		embeddedChunk("bare", models.DepartmentIT, 0, nil),
	})
	assert.Empty(t, idx.Search([]float32{1, 0}, 5, models.DepartmentIT))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{0, 0}))
}
