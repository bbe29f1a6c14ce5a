package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basal-backend-go/internal/model"
)

func fullEmbedding() []float32 {
	return make([]float32, model.EmbeddingDim)
}

func TestUpdateStatus(t *testing.T) {
	sourceRepo := newFakeSourceRepo()
	source := seedSource(t, sourceRepo, uuid.New())
	svc := NewSourceService(sourceRepo)

	require.NoError(t, svc.UpdateStatus(source.ID.String(), "failed"))
	assert.Equal(t, model.StatusFailed, source.Status)
}

func TestUpdateStatusUnknownSource(t *testing.T) {
	svc := NewSourceService(newFakeSourceRepo())
	err := svc.UpdateStatus(uuid.New().String(), "completed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusBadInput(t *testing.T) {
	svc := NewSourceService(newFakeSourceRepo())

	assert.ErrorIs(t, svc.UpdateStatus("not-a-uuid", "completed"), ErrInvalidID)
	assert.ErrorIs(t, svc.UpdateStatus(uuid.New().String(), "exploded"), ErrInvalidPayload)
}

func TestReplaceChunks(t *testing.T) {
	sourceRepo := newFakeSourceRepo()
	source := seedSource(t, sourceRepo, uuid.New())
	svc := NewSourceService(sourceRepo)

	err := svc.ReplaceChunks(source.ID.String(), []ChunkPayload{
		{Content: "first", Embedding: fullEmbedding()},
		{Content: "second", Embedding: fullEmbedding()},
	})
	require.NoError(t, err)
	assert.Len(t, sourceRepo.chunks[source.ID], 2)
	assert.Equal(t, model.StatusCompleted, source.Status)
}

func TestReplaceChunksIdempotent(t *testing.T) {
	sourceRepo := newFakeSourceRepo()
	source := seedSource(t, sourceRepo, uuid.New())
	svc := NewSourceService(sourceRepo)

	payload := []ChunkPayload{
		{Content: "first", Embedding: fullEmbedding()},
		{Content: "second", Embedding: fullEmbedding()},
	}
	require.NoError(t, svc.ReplaceChunks(source.ID.String(), payload))
	require.NoError(t, svc.ReplaceChunks(source.ID.String(), payload))

	// The second sync leaves exactly the same set, no duplicates.
	assert.Len(t, sourceRepo.chunks[source.ID], 2)
}

func TestReplaceChunksBadDimension(t *testing.T) {
	sourceRepo := newFakeSourceRepo()
	source := seedSource(t, sourceRepo, uuid.New())
	svc := NewSourceService(sourceRepo)

	err := svc.ReplaceChunks(source.ID.String(), []ChunkPayload{
		{Content: "short", Embedding: make([]float32, 16)},
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, sourceRepo.chunks[source.ID])
}

func TestReplaceChunksUnknownSource(t *testing.T) {
	svc := NewSourceService(newFakeSourceRepo())
	err := svc.ReplaceChunks(uuid.New().String(), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
