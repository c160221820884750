package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-copilot/models"
)

func chunk(id string, ordinal int) *models.DocumentChunk {
	return &models.DocumentChunk{ChunkID: id, Ordinal: ordinal, CharCount: 100}
}

func TestFuseCombinesBothSides(t *testing.T) {
	a, b, c := chunk("a", 0), chunk("b", 1), chunk("c", 2)

	sparse := []SparseHit{{Chunk: a, Score: 4.0}, {Chunk: b, Score: 2.0}}
	dense := []DenseHit{{Chunk: b, Similarity: 0.9}, {Chunk: c, Similarity: 0.5}}

	results := Fuse(sparse, dense, 5, 0.7, 0.3)
	require.Len(t, results, 3)

	// b has the max dense score and a mid sparse score, so it wins.
	assert.Equal(t, "b", results[0].Chunk.ChunkID)
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 0.7*1.0+0.3*0.0, results[0].CombinedScore, 1e-9)

	// a is sparse-only: its dense side contributes zero.
	var aResult *models.RetrievalResult
	for i := range results {
		if results[i].Chunk.ChunkID == "a" {
			aResult = &results[i]
		}
	}
	require.NotNil(t, aResult)
	assert.Zero(t, aResult.DenseScore)
	assert.InDelta(t, 0.3, aResult.CombinedScore, 1e-9)
}

func TestFuseIsDeterministic(t *testing.T) {
	a, b, c, d := chunk("a", 0), chunk("b", 1), chunk("c", 2), chunk("d", 3)
	sparse := []SparseHit{{Chunk: a, Score: 3}, {Chunk: b, Score: 2}, {Chunk: c, Score: 1}}
	dense := []DenseHit{{Chunk: d, Similarity: 0.8}, {Chunk: c, Similarity: 0.6}}

	first := Fuse(sparse, dense, 5, 0.7, 0.3)
	for i := 0; i < 20; i++ {
		again := Fuse(sparse, dense, 5, 0.7, 0.3)
		require.Equal(t, first, again)
	}
}

func TestFuseTruncatesToK(t *testing.T) {
	var sparse []SparseHit
	for i := 0; i < 10; i++ {
		sparse = append(sparse, SparseHit{Chunk: chunk(string(rune('a'+i)), i), Score: float64(10 - i)})
	}

	results := Fuse(sparse, nil, 5, 0.7, 0.3)
	require.Len(t, results, 5)
	for i, res := range results {
		assert.Equal(t, i+1, res.Rank)
	}
}

func TestFuseTieBreaksByDenseThenOrdinal(t *testing.T) {
	a, b := chunk("a", 5), chunk("b", 1)

	// Equal single-element lists normalize to 1.0 on both sides, so
	// both chunks tie on combined score and dense score; the earlier
	// ordinal wins.
	sparse := []SparseHit{{Chunk: a, Score: 2.0}, {Chunk: b, Score: 2.0}}
	dense := []DenseHit{{Chunk: a, Similarity: 0.9}, {Chunk: b, Similarity: 0.9}}

	results := Fuse(sparse, dense, 5, 0.7, 0.3)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].Chunk.ChunkID)
	assert.Equal(t, "a", results[1].Chunk.ChunkID)
}

func TestFuseEmptyInputs(t *testing.T) {
	assert.Empty(t, Fuse(nil, nil, 5, 0.7, 0.3))
	assert.Empty(t, Fuse([]SparseHit{{Chunk: chunk("a", 0), Score: 1}}, nil, 0, 0.7, 0.3))
}

func TestMinMaxNormalizeEqualScores(t *testing.T) {
	out := minMaxNormalize([]float64{2.5, 2.5, 2.5})
	assert.Equal(t, []float64{1.0, 1.0, 1.0}, out)
}
