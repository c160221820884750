package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-copilot/models"
)

// fakeGenBackend records prompts so tests can inspect what was built,
// or fails on demand. Safe for concurrent branch generation.
type fakeGenBackend struct {
	reply string
	err   error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeGenBackend) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "generated answer", nil
}

func retrievalResult(id, text, source, section string, rank int) models.RetrievalResult {
	return models.RetrievalResult{
		Chunk: &models.DocumentChunk{
			ChunkID: id,
			Text:    text,
			Source:  source,
			Section: section,
		},
		Rank: rank,
	}
}

func TestGenerateIncludesRetrievedChunksInPrompt(t *testing.T) {
	backend := &fakeGenBackend{}
	gen := NewGenerator(backend, 6000)

	results := []models.RetrievalResult{
		retrievalResult("c1", "VPN setup requires the corporate client.", "it-policy.md", "VPN", 1),
	}

	answer, err := gen.Generate(context.Background(), "how do I set up vpn", models.DepartmentIT, "en", results)
	require.NoError(t, err)
	assert.Equal(t, "generated answer", answer.Text)
	require.Len(t, answer.UsedChunks, 1)
	assert.Equal(t, "c1", answer.UsedChunks[0].ChunkID)

	require.Len(t, backend.prompts, 1)
	prompt := backend.prompts[0]
	assert.Contains(t, prompt, "VPN setup requires the corporate client.")
	assert.Contains(t, prompt, "it-policy.md")
	assert.Contains(t, prompt, "how do I set up vpn")
}

func TestGenerateRespectsContextBudget(t *testing.T) {
	backend := &fakeGenBackend{}
	gen := NewGenerator(backend, 300)

	big := strings.Repeat("x", 200)
	results := []models.RetrievalResult{
		retrievalResult("c1", big, "doc.md", "A", 1),
		retrievalResult("c2", big, "doc.md", "B", 2),
		retrievalResult("c3", "short", "doc.md", "C", 3),
	}

	answer, err := gen.Generate(context.Background(), "q", models.DepartmentHR, "en", results)
	require.NoError(t, err)

	// Only the top-ranked chunk fits; lower ranks never leapfrog a
	// skipped one.
	require.Len(t, answer.UsedChunks, 1)
	assert.Equal(t, "c1", answer.UsedChunks[0].ChunkID)
	assert.NotContains(t, backend.prompts[0], "short")
}

func TestGenerateWithNoResults(t *testing.T) {
	backend := &fakeGenBackend{}
	gen := NewGenerator(backend, 6000)

	answer, err := gen.Generate(context.Background(), "q", models.DepartmentHR, "en", nil)
	require.NoError(t, err)
	assert.Empty(t, answer.UsedChunks)
	assert.Contains(t, backend.prompts[0], "could not find")
}

func TestGenerateArabicInstruction(t *testing.T) {
	backend := &fakeGenBackend{}
	gen := NewGenerator(backend, 6000)

	_, err := gen.Generate(context.Background(), "سؤال", models.DepartmentHR, "ar", nil)
	require.NoError(t, err)
	assert.Contains(t, backend.prompts[0], "Respond in Arabic")

	backend2 := &fakeGenBackend{}
	gen2 := NewGenerator(backend2, 6000)
	_, err = gen2.Generate(context.Background(), "question", models.DepartmentHR, "en", nil)
	require.NoError(t, err)
	assert.NotContains(t, backend2.prompts[0], "Respond in Arabic")
}

func TestGeneratePropagatesBackendError(t *testing.T) {
	backend := &fakeGenBackend{err: errors.New("model overloaded")}
	gen := NewGenerator(backend, 6000)

	_, err := gen.Generate(context.Background(), "q", models.DepartmentIT, "en", nil)
	assert.Error(t, err)
}

func TestGenerateUnknownDepartmentFallsBackToGeneral(t *testing.T) {
	backend := &fakeGenBackend{}
	gen := NewGenerator(backend, 6000)

	_, err := gen.Generate(context.Background(), "q", "Mystery", "en", nil)
	require.NoError(t, err)
	assert.Contains(t, backend.prompts[0], "general onboarding assistant")
}

func TestFollowups(t *testing.T) {
	assert.NotEmpty(t, Followups(models.DepartmentIT))
	assert.Equal(t, Followups(models.DepartmentGeneral), Followups("Mystery"))
}
