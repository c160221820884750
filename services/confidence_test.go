package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"onboarding-copilot/models"
)

func scoredResult(combined float64) models.RetrievalResult {
	return models.RetrievalResult{Chunk: &models.DocumentChunk{}, CombinedScore: combined}
}

func TestRetrievalConfidenceEmptyResults(t *testing.T) {
	assert.Zero(t, RetrievalConfidence(nil))
}

func TestRetrievalConfidenceSinglePerfectResult(t *testing.T) {
	// top=1, avg=1, count factor 1/2.
	got := RetrievalConfidence([]models.RetrievalResult{scoredResult(1.0)})
	assert.InDelta(t, 0.5+0.3+0.2*0.5, got, 1e-9)
}

func TestRetrievalConfidenceWeighsTopAvgAndCount(t *testing.T) {
	results := []models.RetrievalResult{
		scoredResult(1.0),
		scoredResult(0.5),
		scoredResult(0.0),
	}
	// top=1.0, avg=0.5, count factor saturates at 1.
	got := RetrievalConfidence(results)
	assert.InDelta(t, 0.5*1.0+0.3*0.5+0.2*1.0, got, 1e-9)
}

func TestRetrievalConfidenceCountSaturates(t *testing.T) {
	two := RetrievalConfidence([]models.RetrievalResult{scoredResult(1), scoredResult(1)})
	five := RetrievalConfidence([]models.RetrievalResult{
		scoredResult(1), scoredResult(1), scoredResult(1), scoredResult(1), scoredResult(1),
	})
	assert.Equal(t, two, five)
}
