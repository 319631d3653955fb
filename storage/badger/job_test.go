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

func TestAppendJob_AssignsSequentialIDs(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	first, err := repos.Jobs.AppendJob(ctx, &core.CrawlJob{
		PersonaId: "persona-1",
		URL:       "https://youtu.be/a",
		Type:      core.SourceTypeVideo,
		Status:    core.JobStatusPending,
	})
	require.NoError(t, err)
	assert.NotZero(t, first.Id)
	assert.False(t, first.EnqueuedAt.IsZero())

	second, err := repos.Jobs.AppendJob(ctx, &core.CrawlJob{
		PersonaId: "persona-1",
		URL:       "https://youtu.be/a",
		Type:      core.SourceTypeVideo,
		Status:    core.JobStatusPending,
	})
	require.NoError(t, err)
	assert.Greater(t, second.Id, first.Id)
}

func TestUpdateJob(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	job, err := repos.Jobs.AppendJob(ctx, &core.CrawlJob{
		PersonaId: "persona-1",
		URL:       "https://youtu.be/a",
		Type:      core.SourceTypeVideo,
		Status:    core.JobStatusPending,
	})
	require.NoError(t, err)

	job.Status = core.JobStatusProcessing
	job.Stage = core.JobStageEmbed
	job.StartedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repos.Jobs.UpdateJob(ctx, job))

	loaded, err := repos.Jobs.GetJob(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobStatusProcessing, loaded.Status)
	assert.Equal(t, core.JobStageEmbed, loaded.Stage)
}

func TestUpdateJob_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	err = repos.Jobs.UpdateJob(context.Background(), &core.CrawlJob{Id: 999, PersonaId: "persona-1"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetJob_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = repos.Jobs.GetJob(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLatestBySource_KeepsNewestAttemptPerURL(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	// Two attempts for the same URL; the later one must win.
	_, err = repos.Jobs.AppendJob(ctx, &core.CrawlJob{
		PersonaId:  "persona-1",
		URL:        "https://youtu.be/a",
		Type:       core.SourceTypeVideo,
		Status:     core.JobStatusFailed,
		EnqueuedAt: base.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = repos.Jobs.AppendJob(ctx, &core.CrawlJob{
		PersonaId:  "persona-1",
		URL:        "https://youtu.be/a",
		Type:       core.SourceTypeVideo,
		Status:     core.JobStatusCompleted,
		EnqueuedAt: base,
	})
	require.NoError(t, err)
	_, err = repos.Jobs.AppendJob(ctx, &core.CrawlJob{
		PersonaId:  "persona-1",
		URL:        "https://www.instagram.com/p/b/",
		Type:       core.SourceTypeSocial,
		Status:     core.JobStatusPending,
		EnqueuedAt: base,
	})
	require.NoError(t, err)

	latest, err := repos.Jobs.LatestBySource(ctx, "persona-1")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, core.JobStatusCompleted, latest["https://youtu.be/a"].Status)
	assert.Equal(t, core.JobStatusPending, latest["https://www.instagram.com/p/b/"].Status)
}

func TestLatestBySource_ScopedToPersona(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	_, err = repos.Jobs.AppendJob(ctx, &core.CrawlJob{
		PersonaId: "persona-2",
		URL:       "https://youtu.be/other",
		Type:      core.SourceTypeVideo,
		Status:    core.JobStatusPending,
	})
	require.NoError(t, err)

	latest, err := repos.Jobs.LatestBySource(ctx, "persona-1")
	require.NoError(t, err)
	assert.Empty(t, latest)
}
