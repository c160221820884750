package services

import "onboarding-copilot/models"

// Weights and saturation for the retrieval confidence score. Two or
// more fused documents count as full support.
const (
	confidenceTopWeight   = 0.5
	confidenceAvgWeight   = 0.3
	confidenceCountWeight = 0.2
	confidenceFullSupport = 2
)

// RetrievalConfidence scores how well the fused results ground an
// answer: a weighted combination of the top combined score, the
// average combined score and a saturating document count. Empty
// results score zero.
func RetrievalConfidence(results []models.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}

	var sum float64
	for _, res := range results {
		sum += res.CombinedScore
	}
	avg := sum / float64(len(results))
	top := results[0].CombinedScore

	countFactor := float64(len(results)) / confidenceFullSupport
	if countFactor > 1 {
		countFactor = 1
	}

	return confidenceTopWeight*top + confidenceAvgWeight*avg + confidenceCountWeight*countFactor
}
