package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	calls int
	fail  bool
}

func (b *countingBackend) Embed(_ context.Context, text string) ([]float32, error) {
	b.calls++
	if b.fail {
		return nil, errors.New("backend down")
	}
	return []float32{float32(len(text)), 1, 2}, nil
}

func TestEmbedCachesRepeatedText(t *testing.T) {
	backend := &countingBackend{}
	svc := NewEmbeddingService(backend, 10)
	ctx := context.Background()

	first, err := svc.Embed(ctx, "hello")
	require.NoError(t, err)

	second, err := svc.Embed(ctx, "hello")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.calls)

	hits, misses, size := svc.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
	assert.Equal(t, 1, size)
}

func TestEmbedEvictsLeastRecentlyUsed(t *testing.T) {
	backend := &countingBackend{}
	svc := NewEmbeddingService(backend, 2)
	ctx := context.Background()

	svc.Embed(ctx, "a")
	svc.Embed(ctx, "b")
	svc.Embed(ctx, "a") // refresh "a"
	svc.Embed(ctx, "c") // evicts "b"
	require.Equal(t, 3, backend.calls)

	svc.Embed(ctx, "a")
	assert.Equal(t, 3, backend.calls)

	svc.Embed(ctx, "b")
	assert.Equal(t, 4, backend.calls)
}

func TestEmbedPropagatesBackendError(t *testing.T) {
	backend := &countingBackend{fail: true}
	svc := NewEmbeddingService(backend, 10)

	vec, err := svc.Embed(context.Background(), "hello")
	assert.Error(t, err)
	assert.Nil(t, vec)

	// Failures are never cached.
	backend.fail = false
	vec, err = svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.NotNil(t, vec)
	assert.Equal(t, 2, backend.calls)
}

func TestEmbedReturnsCopies(t *testing.T) {
	backend := &countingBackend{}
	svc := NewEmbeddingService(backend, 10)
	ctx := context.Background()

	first, err := svc.Embed(ctx, "hello")
	require.NoError(t, err)
	first[0] = -999

	second, err := svc.Embed(ctx, "hello")
	require.NoError(t, err)
	assert.NotEqual(t, float32(-999), second[0])
}
