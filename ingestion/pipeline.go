// Copyright 2026 Echotwin Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/echotwin/echotwin/ai"
	"github.com/echotwin/echotwin/chunker"
	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/crawler"
	"github.com/echotwin/echotwin/storage"
)

// QueueName identifies the crawl work queue in logs and metrics.
const QueueName = "crawl-pipeline"

const (
	// DefaultPoolSize is the number of concurrent crawl workers.
	DefaultPoolSize = 2

	// DefaultMaxAttempts is how many times a job is tried before failing.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the initial retry delay; it doubles per attempt.
	DefaultRetryBaseDelay = time.Second
)

// Pipeline orchestrates content ingestion: crawl, chunk, embed, store.
// Jobs run asynchronously on a bounded worker pool; every trigger gets its
// own durable job record that survives the process and preserves per-source
// history under concurrent re-triggers.
type Pipeline struct {
	chunks   storage.ChunkRepository
	sources  storage.SourceRepository
	jobs     storage.JobRepository
	crawlers *crawler.Registry
	splitter *chunker.Splitter
	embedder ai.Embedder

	pool        *ants.Pool
	inFlight    sync.WaitGroup
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent crawl jobs.
// Default is DefaultPoolSize.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMaxAttempts sets how many times a failing job is tried.
func WithMaxAttempts(attempts int) Option {
	return func(p *Pipeline) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = attempts
		return nil
	}
}

// WithRetryBaseDelay sets the initial delay between job attempts.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(p *Pipeline) error {
		p.baseDelay = delay
		return nil
	}
}

// WithSplitter sets a custom text splitter.
func WithSplitter(splitter *chunker.Splitter) Option {
	return func(p *Pipeline) error {
		p.splitter = splitter
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunks storage.ChunkRepository,
	sources storage.SourceRepository,
	jobs storage.JobRepository,
	crawlers *crawler.Registry,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if sources == nil {
		return nil, ErrSourceRepositoryRequired
	}
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if crawlers == nil {
		return nil, ErrCrawlerRegistryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunks:      chunks,
		sources:     sources,
		jobs:        jobs,
		crawlers:    crawlers,
		splitter:    chunker.New(),
		embedder:    provider.Embedder(),
		pool:        pool,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultRetryBaseDelay,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Enqueue registers a new crawl job for the source and submits it to the
// worker pool. The returned job is the durable pending record; its progress
// can be followed through the job repository while the work runs
// asynchronously. Failures inside the worker never propagate here.
func (p *Pipeline) Enqueue(ctx context.Context, source *core.ContentSource) (*core.CrawlJob, error) {
	if err := core.ValidateSource(source); err != nil {
		return nil, err
	}

	job, err := p.jobs.AppendJob(ctx, &core.CrawlJob{
		PersonaId: source.PersonaId,
		URL:       source.URL,
		Type:      source.Type,
		Status:    core.JobStatusPending,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("job enqueued",
		"queue", QueueName,
		"jobId", uint64(job.Id),
		"personaId", source.PersonaId,
		"sourceType", source.Type.String(),
		"url", source.URL)

	// Detach from the caller's context: the job outlives the request.
	src := *source
	p.inFlight.Add(1)
	err = p.pool.Submit(func() {
		defer p.inFlight.Done()
		p.run(context.Background(), job, &src)
	})
	if err != nil {
		p.inFlight.Done()
		job.Status = core.JobStatusFailed
		job.Error = err.Error()
		job.FinishedAt = time.Now().UTC()
		p.updateJob(ctx, job)
		return nil, err
	}

	return job, nil
}

// run executes one crawl job with retries and records its lifecycle.
func (p *Pipeline) run(ctx context.Context, job *core.CrawlJob, source *core.ContentSource) {
	job.Status = core.JobStatusProcessing
	job.StartedAt = time.Now().UTC()
	p.updateJob(ctx, job)

	err := RetryWithBackoff(ctx, func(attempt int) error {
		job.Attempt = attempt
		return p.ingest(ctx, job, source)
	}, p.maxAttempts, p.baseDelay)

	job.FinishedAt = time.Now().UTC()
	if err != nil {
		job.Status = core.JobStatusFailed
		job.Error = err.Error()
		p.logger.Error("job failed",
			"queue", QueueName,
			"jobId", uint64(job.Id),
			"url", job.URL,
			"attempts", job.Attempt,
			"err", err)
	} else {
		job.Status = core.JobStatusCompleted
		job.Error = ""
		if markErr := p.sources.MarkProcessed(ctx, source.PersonaId, source.Id, job.FinishedAt); markErr != nil {
			p.logger.Error("error marking source processed", "sourceId", uint64(source.Id), "err", markErr)
		}
		p.logger.Info("job completed",
			"queue", QueueName,
			"jobId", uint64(job.Id),
			"url", job.URL,
			"duration", job.FinishedAt.Sub(job.StartedAt))
	}
	p.updateJob(ctx, job)
}

// ingest performs one crawl-chunk-embed-store pass for the source.
// A retried job restarts from the crawl stage.
func (p *Pipeline) ingest(ctx context.Context, job *core.CrawlJob, source *core.ContentSource) error {
	p.setStage(ctx, job, core.JobStageCrawl)
	results, err := p.crawlers.Crawl(ctx, source)
	if err != nil {
		return err
	}

	p.setStage(ctx, job, core.JobStageChunk)
	var texts []string
	var origins []*core.CrawlResult
	for _, result := range results {
		for _, text := range p.splitter.Split(result.Content) {
			texts = append(texts, text)
			origins = append(origins, result)
		}
	}

	var chunks []*core.ContentChunk
	if len(texts) > 0 {
		p.setStage(ctx, job, core.JobStageEmbed)
		vectors, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}

		chunks = make([]*core.ContentChunk, len(texts))
		for i, text := range texts {
			chunks[i] = &core.ContentChunk{
				PersonaId: source.PersonaId,
				Type:      source.Type,
				URL:       source.URL,
				Text:      text,
				Vector:    vectors[i],
				Metadata:  chunkMetadata(origins[i]),
			}
		}
	}

	// Old chunks of this source are superseded wholesale, even when the
	// re-crawl produced nothing.
	p.setStage(ctx, job, core.JobStageStore)
	if _, err := p.chunks.ReplaceSource(ctx, source.PersonaId, source.URL, chunks); err != nil {
		return err
	}

	p.logger.Debug("source ingested",
		"url", source.URL,
		"results", len(results),
		"chunks", len(chunks))
	return nil
}

// SourceStatus pairs a registered source with its most recent job, if any.
type SourceStatus struct {
	Source *core.ContentSource
	Job    *core.CrawlJob // nil when the source was never enqueued
}

// State returns the human-readable processing state of the source.
func (s *SourceStatus) State() string {
	if s.Job == nil {
		return "idle"
	}
	return s.Job.Status.String()
}

// StatusBySource reports every registered source of a persona with its
// latest job. Sources that were never enqueued appear with a nil Job.
func (p *Pipeline) StatusBySource(ctx context.Context, personaID string) ([]*SourceStatus, error) {
	sources, err := p.sources.ListSources(ctx, personaID)
	if err != nil {
		return nil, err
	}
	latest, err := p.jobs.LatestBySource(ctx, personaID)
	if err != nil {
		return nil, err
	}

	statuses := make([]*SourceStatus, len(sources))
	for i, source := range sources {
		statuses[i] = &SourceStatus{
			Source: source,
			Job:    latest[source.URL],
		}
	}
	return statuses, nil
}

// Drain blocks until all submitted jobs have finished.
func (p *Pipeline) Drain() {
	p.inFlight.Wait()
}

// Release releases the worker pool after draining in-flight jobs.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.inFlight.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}

// setStage records a job progress milestone, best effort.
func (p *Pipeline) setStage(ctx context.Context, job *core.CrawlJob, stage core.JobStage) {
	job.Stage = stage
	p.updateJob(ctx, job)
}

// updateJob persists job state, logging instead of failing the worker.
func (p *Pipeline) updateJob(ctx context.Context, job *core.CrawlJob) {
	if err := p.jobs.UpdateJob(ctx, job); err != nil {
		p.logger.Error("error updating job record", "jobId", uint64(job.Id), "err", err)
	}
}

// chunkMetadata carries crawl result context onto its chunks.
func chunkMetadata(result *core.CrawlResult) map[string]string {
	metadata := make(map[string]string, len(result.Metadata)+1)
	for k, v := range result.Metadata {
		metadata[k] = v
	}
	if result.Title != "" {
		metadata["title"] = result.Title
	}
	return metadata
}
