package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage"
)

func newChunk(personaID, url, text string, vector []float32) *core.ContentChunk {
	return &core.ContentChunk{
		PersonaId: personaID,
		Type:      core.SourceTypeVideo,
		URL:       url,
		Text:      text,
		Vector:    vector,
	}
}

func TestStoreChunks_AssignsIDsAndTimestamps(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	chunks := []*core.ContentChunk{
		newChunk("persona-1", "https://youtu.be/abc", "first chunk", []float32{1, 0}),
		newChunk("persona-1", "https://youtu.be/abc", "second chunk", []float32{0, 1}),
	}

	stored, err := repos.Chunks.StoreChunks(ctx, chunks...)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	for _, chunk := range stored {
		assert.NotZero(t, chunk.Id)
		assert.False(t, chunk.InsertedAt.IsZero())
	}
	assert.NotEqual(t, stored[0].Id, stored[1].Id)
}

func TestSearchSimilar_InvalidQuery(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	_, err = repos.Chunks.SearchSimilar(ctx, "persona-1", nil, 5)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = repos.Chunks.SearchSimilar(ctx, "persona-1", []float32{1, 0}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestSearchSimilar_OrdersByDescendingSimilarity(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	_, err = repos.Chunks.StoreChunks(ctx,
		newChunk("persona-1", "https://youtu.be/a", "very similar", []float32{1, 0, 0}),
		newChunk("persona-1", "https://youtu.be/b", "somewhat similar", []float32{0.7, 0.7, 0}),
		newChunk("persona-1", "https://youtu.be/c", "not similar", []float32{0, 0, 1}),
	)
	require.NoError(t, err)

	results, err := repos.Chunks.SearchSimilar(ctx, "persona-1", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "very similar", results[0].Chunk.Text)
	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Similarity, results[i+1].Similarity)
	}
}

func TestSearchSimilar_SkipsDimensionMismatches(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	_, err = repos.Chunks.StoreChunks(ctx,
		newChunk("persona-1", "https://youtu.be/a", "searchable", []float32{1, 0, 0}),
		newChunk("persona-1", "https://youtu.be/b", "wrong dimension", []float32{1, 0}),
		newChunk("persona-1", "https://youtu.be/c", "no vector", nil),
	)
	require.NoError(t, err)

	results, err := repos.Chunks.SearchSimilar(ctx, "persona-1", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "searchable", results[0].Chunk.Text)
}

func TestSearchSimilar_ScopedToPersona(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	_, err = repos.Chunks.StoreChunks(ctx,
		newChunk("persona-1", "https://youtu.be/a", "mine", []float32{1, 0}),
		newChunk("persona-2", "https://youtu.be/b", "theirs", []float32{1, 0}),
	)
	require.NoError(t, err)

	results, err := repos.Chunks.SearchSimilar(ctx, "persona-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mine", results[0].Chunk.Text)
}

func TestSearchSimilar_Limit(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	for i := 0; i < 8; i++ {
		_, err = repos.Chunks.StoreChunks(ctx,
			newChunk("persona-1", "https://youtu.be/a", "chunk "+string(rune('a'+i)), []float32{1, 0}))
		require.NoError(t, err)
	}

	results, err := repos.Chunks.SearchSimilar(ctx, "persona-1", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestDeleteBySource(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	_, err = repos.Chunks.StoreChunks(ctx,
		newChunk("persona-1", "https://youtu.be/gone", "doomed 1", []float32{1, 0}),
		newChunk("persona-1", "https://youtu.be/gone", "doomed 2", []float32{0, 1}),
		newChunk("persona-1", "https://youtu.be/kept", "survivor", []float32{1, 1}),
	)
	require.NoError(t, err)

	deleted, err := repos.Chunks.DeleteBySource(ctx, "persona-1", "https://youtu.be/gone")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	results, err := repos.Chunks.SearchSimilar(ctx, "persona-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "survivor", results[0].Chunk.Text)
}

func TestDeleteBySource_NoChunksIsNotAnError(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	deleted, err := repos.Chunks.DeleteBySource(context.Background(), "persona-1", "https://youtu.be/nothing")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestReplaceSource_SupersedesOldChunks(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	url := "https://youtu.be/recrawled"

	_, err = repos.Chunks.StoreChunks(ctx,
		newChunk("persona-1", url, "stale a", []float32{1, 0}),
		newChunk("persona-1", url, "stale b", []float32{0, 1}),
	)
	require.NoError(t, err)

	fresh := []*core.ContentChunk{
		newChunk("persona-1", url, "fresh", []float32{1, 1}),
	}
	_, err = repos.Chunks.ReplaceSource(ctx, "persona-1", url, fresh)
	require.NoError(t, err)

	results, err := repos.Chunks.SearchSimilar(ctx, "persona-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fresh", results[0].Chunk.Text)
}

func TestReplaceSource_WithEmptyChunksClearsSource(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	url := "https://youtu.be/empty-recrawl"

	_, err = repos.Chunks.StoreChunks(ctx, newChunk("persona-1", url, "old", []float32{1, 0}))
	require.NoError(t, err)

	_, err = repos.Chunks.ReplaceSource(ctx, "persona-1", url, nil)
	require.NoError(t, err)

	results, err := repos.Chunks.SearchSimilar(ctx, "persona-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
