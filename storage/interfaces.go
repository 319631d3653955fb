package storage

import (
	"context"
	"time"

	"github.com/echotwin/echotwin/core"
)

// ChunkRepository provides operations for managing embedded content chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// StoreChunks persists one or more content chunks.
	// For chunks with ID=0, derives content-based IDs from the chunk text.
	// Sets InsertedAt timestamp if not already set.
	// Returns the chunks with IDs and timestamps populated.
	StoreChunks(ctx context.Context, chunks ...*core.ContentChunk) ([]*core.ContentChunk, error)

	// SearchSimilar finds the chunks of a persona most similar to the query
	// vector by cosine similarity. Returns up to limit results ordered by
	// similarity descending. Chunks whose stored vector length differs from
	// the query vector length are skipped, never errored on.
	SearchSimilar(ctx context.Context, personaID string, vector []float32, limit int) ([]*core.RetrievedChunk, error)

	// DeleteBySource removes all chunks of a persona that came from the given
	// source URL. Returns the number of chunks removed. Deleting from a
	// source with no chunks is not an error.
	DeleteBySource(ctx context.Context, personaID, sourceURL string) (int, error)

	// ReplaceSource atomically replaces all chunks of a (persona, source URL)
	// pair with the provided chunks. Readers never observe the source
	// partially emptied: the delete and insert commit together or not at all.
	ReplaceSource(ctx context.Context, personaID, sourceURL string, chunks []*core.ContentChunk) ([]*core.ContentChunk, error)

	// Close closes the repository and releases resources.
	Close() error
}

// PersonaRepository provides operations for managing persona profiles and
// their conversational configuration. Facts, Q&A pairs, topics to avoid and
// keyword rules are stored as independent persona-scoped records so a chat
// turn can load them concurrently.
type PersonaRepository interface {
	// PutPersona creates or updates a persona profile.
	// Sets InsertedAt on first write and refreshes UpdatedAt on every write.
	PutPersona(ctx context.Context, persona *core.Persona) error

	// GetPersona retrieves a persona by ID.
	// Returns ErrNotFound if the persona doesn't exist.
	GetPersona(ctx context.Context, personaID string) (*core.Persona, error)

	// DeletePersona removes a persona profile and its configuration records.
	// Returns ErrNotFound if the persona doesn't exist.
	DeletePersona(ctx context.Context, personaID string) error

	// PutFacts replaces the persona's fact list.
	PutFacts(ctx context.Context, personaID string, facts []string) error

	// GetFacts retrieves the persona's fact list.
	// A persona with no facts yields an empty slice, not an error.
	GetFacts(ctx context.Context, personaID string) ([]string, error)

	// PutQAPairs replaces the persona's few-shot question/answer examples.
	PutQAPairs(ctx context.Context, personaID string, pairs []core.QAPair) error

	// GetQAPairs retrieves the persona's question/answer examples.
	GetQAPairs(ctx context.Context, personaID string) ([]core.QAPair, error)

	// PutTopicsToAvoid replaces the persona's list of off-limits topics.
	PutTopicsToAvoid(ctx context.Context, personaID string, topics []string) error

	// GetTopicsToAvoid retrieves the persona's off-limits topics.
	GetTopicsToAvoid(ctx context.Context, personaID string) ([]string, error)

	// PutKeywordRules replaces the persona's keyword-triggered canned
	// responses. Rule order is preserved; evaluation uses ascending Priority
	// with stored order breaking ties.
	PutKeywordRules(ctx context.Context, personaID string, rules []core.KeywordRule) error

	// GetKeywordRules retrieves the persona's keyword rules in stored order.
	GetKeywordRules(ctx context.Context, personaID string) ([]core.KeywordRule, error)

	// Close closes the repository and releases resources.
	Close() error
}

// SourceRepository provides operations for managing registered content sources.
type SourceRepository interface {
	// AddSource registers a content source against a persona.
	// For sources with ID=0, derives a content-based ID from the persona and
	// URL (or raw payload for URL-less document uploads), so re-registering
	// the same source is idempotent. Sets AddedAt if not already set.
	AddSource(ctx context.Context, source *core.ContentSource) (*core.ContentSource, error)

	// GetSource retrieves a source of a persona by ID.
	// Returns ErrNotFound if the source doesn't exist.
	GetSource(ctx context.Context, personaID string, id core.ID) (*core.ContentSource, error)

	// ListSources retrieves all sources registered for a persona, ordered by
	// registration time, then ID for sources registered in the same instant.
	ListSources(ctx context.Context, personaID string) ([]*core.ContentSource, error)

	// DeleteSource removes a source registration.
	// Returns ErrNotFound if the source doesn't exist. Cascading removal of
	// the source's chunks is the caller's responsibility.
	DeleteSource(ctx context.Context, personaID string, id core.ID) error

	// MarkProcessed records a successful ingest time on the source.
	// Returns ErrNotFound if the source doesn't exist.
	MarkProcessed(ctx context.Context, personaID string, id core.ID, processedAt time.Time) error

	// Close closes the repository and releases resources.
	Close() error
}

// JobRepository provides operations for tracking crawl job attempts.
// Every attempt is its own record: workers append a new job per trigger and
// only the owning worker updates it, so concurrent re-triggers of the same
// source never clobber each other's history.
type JobRepository interface {
	// AppendJob persists a new job attempt, assigning a sequence ID.
	// Sets EnqueuedAt if not already set.
	AppendJob(ctx context.Context, job *core.CrawlJob) (*core.CrawlJob, error)

	// UpdateJob overwrites an existing job record.
	// Returns ErrNotFound if the job doesn't exist.
	UpdateJob(ctx context.Context, job *core.CrawlJob) error

	// GetJob retrieves a job by ID.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, id core.ID) (*core.CrawlJob, error)

	// LatestBySource returns the most recent job per source URL for a
	// persona, keyed by URL. Recency is by EnqueuedAt, then job ID.
	LatestBySource(ctx context.Context, personaID string) (map[string]*core.CrawlJob, error)

	// Close closes the repository and releases resources.
	Close() error
}
