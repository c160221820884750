package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-copilot/models"
)

const samplePolicy = `# Leave Policy

## Vacation

Full-time employees accrue vacation at 1.5 days per month. Unused days
carry over up to a cap of ten days per calendar year.

## Sick Leave

Sick leave is unlimited for genuine illness. Notify your manager
before your first meeting of the day whenever possible.
`

func TestChunkTagsSectionsAndMetadata(t *testing.T) {
	chunker := NewChunker(500, 50, 20)

	chunks := chunker.Chunk(samplePolicy, "leave-policy.md", models.DepartmentHR)
	require.NotEmpty(t, chunks)

	sections := make(map[string]bool)
	for i, ch := range chunks {
		assert.NotEmpty(t, ch.ChunkID)
		assert.Equal(t, "leave-policy.md", ch.Source)
		assert.Equal(t, models.DepartmentHR, ch.Department)
		assert.Equal(t, i, ch.Order)
		assert.Equal(t, len(ch.Text), ch.CharCount)
		assert.Equal(t, len(strings.Fields(ch.Text)), ch.WordCount)
		sections[ch.Section] = true
	}
	assert.True(t, sections["Vacation"])
	assert.True(t, sections["Sick Leave"])
}

func TestChunkSplitsLongSectionsWithOverlap(t *testing.T) {
	chunker := NewChunker(120, 30, 20)

	var sentences []string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, "This sentence pads the section to force a split across chunks.")
	}
	text := "# Long\n\n" + strings.Join(sentences, " ")

	chunks := chunker.Chunk(text, "long.md", models.DepartmentIT)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.CharCount, 120+30)
	}

	// Consecutive chunks share overlapping text.
	tail := chunks[0].Text[len(chunks[0].Text)-10:]
	assert.Contains(t, chunks[1].Text, strings.TrimSpace(tail))
}

func TestChunkDropsFragmentsBelowMinSize(t *testing.T) {
	chunker := NewChunker(500, 50, 100)

	chunks := chunker.Chunk("# Tiny\n\nshort.", "tiny.md", models.DepartmentIT)
	assert.Empty(t, chunks)
}

func TestChunkDocumentWithoutHeaders(t *testing.T) {
	chunker := NewChunker(500, 50, 10)

	chunks := chunker.Chunk("A plain policy paragraph with no markdown headers at all.", "plain.txt", models.DepartmentGeneral)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Overview", chunks[0].Section)
}
