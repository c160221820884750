package services

import (
	"sort"

	"onboarding-copilot/models"
)

// Fuse merges a sparse and a dense result list into a single ranked
// list of at most k results. Each list's scores are min-max normalized
// independently; a chunk absent from one list contributes zero for
// that side. The function is pure and deterministic: identical inputs
// always produce the identical ranking.
func Fuse(sparse []SparseHit, dense []DenseHit, k int, denseWeight, sparseWeight float64) []models.RetrievalResult {
	if k <= 0 {
		return nil
	}

	sparseScores := make([]float64, len(sparse))
	for i, hit := range sparse {
		sparseScores[i] = hit.Score
	}
	denseScores := make([]float64, len(dense))
	for i, hit := range dense {
		denseScores[i] = hit.Similarity
	}
	sparseNorm := minMaxNormalize(sparseScores)
	denseNorm := minMaxNormalize(denseScores)

	byID := make(map[string]*models.RetrievalResult)
	order := make([]string, 0, len(sparse)+len(dense))

	for i, hit := range sparse {
		res, ok := byID[hit.Chunk.ChunkID]
		if !ok {
			res = &models.RetrievalResult{Chunk: hit.Chunk}
			byID[hit.Chunk.ChunkID] = res
			order = append(order, hit.Chunk.ChunkID)
		}
		if sparseNorm[i] > res.SparseScore {
			res.SparseScore = sparseNorm[i]
		}
	}
	for i, hit := range dense {
		res, ok := byID[hit.Chunk.ChunkID]
		if !ok {
			res = &models.RetrievalResult{Chunk: hit.Chunk}
			byID[hit.Chunk.ChunkID] = res
			order = append(order, hit.Chunk.ChunkID)
		}
		if denseNorm[i] > res.DenseScore {
			res.DenseScore = denseNorm[i]
		}
	}

	results := make([]models.RetrievalResult, 0, len(order))
	for _, id := range order {
		res := byID[id]
		res.CombinedScore = denseWeight*res.DenseScore + sparseWeight*res.SparseScore
		results = append(results, *res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		if results[i].DenseScore != results[j].DenseScore {
			return results[i].DenseScore > results[j].DenseScore
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// minMaxNormalize scales scores to [0, 1]. When all scores are equal
// every score maps to 1.0, so a single-element list still counts
// fully toward the combined score.
func minMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	out := make([]float64, len(scores))
	if max == min {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - min) / (max - min)
	}
	return out
}
