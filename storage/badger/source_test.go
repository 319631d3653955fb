package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage"
)

func TestAddSource_DerivesStableID(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	source := &core.ContentSource{
		PersonaId: "persona-1",
		Type:      core.SourceTypeVideo,
		URL:       "https://youtu.be/dQw4w9WgXcQ",
	}

	added, err := repos.Sources.AddSource(ctx, source)
	require.NoError(t, err)
	assert.NotZero(t, added.Id)
	assert.False(t, added.AddedAt.IsZero())

	// Re-registering the same URL is idempotent.
	again, err := repos.Sources.AddSource(ctx, &core.ContentSource{
		PersonaId: "persona-1",
		Type:      core.SourceTypeVideo,
		URL:       "https://youtu.be/dQw4w9WgXcQ",
	})
	require.NoError(t, err)
	assert.Equal(t, added.Id, again.Id)
	assert.Equal(t, added.AddedAt, again.AddedAt)

	sources, err := repos.Sources.ListSources(ctx, "persona-1")
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestAddSource_RawContentWithoutURL(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	added, err := repos.Sources.AddSource(ctx, &core.ContentSource{
		PersonaId:  "persona-1",
		Type:       core.SourceTypeDocument,
		RawContent: []byte("%PDF-1.7 payload"),
	})
	require.NoError(t, err)
	assert.NotZero(t, added.Id)
}

func TestListSources_OrderedByRegistrationTime(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	urls := map[time.Duration]string{
		2 * time.Hour: "https://youtu.be/ccccccccccc",
		0:             "https://youtu.be/aaaaaaaaaaa",
		time.Hour:     "https://youtu.be/bbbbbbbbbbb",
	}
	for offset, url := range urls {
		_, err := repos.Sources.AddSource(ctx, &core.ContentSource{
			PersonaId: "persona-1",
			Type:      core.SourceTypeVideo,
			URL:       url,
			AddedAt:   base.Add(offset),
		})
		require.NoError(t, err)
	}

	sources, err := repos.Sources.ListSources(ctx, "persona-1")
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, "https://youtu.be/aaaaaaaaaaa", sources[0].URL)
	assert.Equal(t, "https://youtu.be/bbbbbbbbbbb", sources[1].URL)
	assert.Equal(t, "https://youtu.be/ccccccccccc", sources[2].URL)
}

func TestListSources_ScopedToPersona(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	_, err = repos.Sources.AddSource(ctx, &core.ContentSource{
		PersonaId: "persona-1", Type: core.SourceTypeVideo, URL: "https://youtu.be/one",
	})
	require.NoError(t, err)
	_, err = repos.Sources.AddSource(ctx, &core.ContentSource{
		PersonaId: "persona-2", Type: core.SourceTypeVideo, URL: "https://youtu.be/two",
	})
	require.NoError(t, err)

	sources, err := repos.Sources.ListSources(ctx, "persona-1")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://youtu.be/one", sources[0].URL)
}

func TestDeleteSource(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	added, err := repos.Sources.AddSource(ctx, &core.ContentSource{
		PersonaId: "persona-1", Type: core.SourceTypeSocial, URL: "https://www.instagram.com/p/abc/",
	})
	require.NoError(t, err)

	require.NoError(t, repos.Sources.DeleteSource(ctx, "persona-1", added.Id))

	_, err = repos.Sources.GetSource(ctx, "persona-1", added.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repos.Sources.DeleteSource(ctx, "persona-1", added.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMarkProcessed(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	added, err := repos.Sources.AddSource(ctx, &core.ContentSource{
		PersonaId: "persona-1", Type: core.SourceTypeVideo, URL: "https://youtu.be/processed",
	})
	require.NoError(t, err)
	assert.True(t, added.LastProcessedAt.IsZero())

	processedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repos.Sources.MarkProcessed(ctx, "persona-1", added.Id, processedAt))

	loaded, err := repos.Sources.GetSource(ctx, "persona-1", added.Id)
	require.NoError(t, err)
	assert.Equal(t, processedAt, loaded.LastProcessedAt)
}

func TestMarkProcessed_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	err = repos.Sources.MarkProcessed(context.Background(), "persona-1", 12345, time.Now())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
