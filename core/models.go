package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SourceType identifies the kind of external content source.
type SourceType int

const (
	// SourceTypeVideo is a video whose transcript track is ingested.
	SourceTypeVideo SourceType = iota + 1
	// SourceTypeSocial is a social post whose caption is ingested.
	SourceTypeSocial
	// SourceTypeDocument is an uploaded or remote document.
	SourceTypeDocument
)

// String returns the wire name of the source type.
func (t SourceType) String() string {
	switch t {
	case SourceTypeVideo:
		return "video"
	case SourceTypeSocial:
		return "social"
	case SourceTypeDocument:
		return "document"
	default:
		return "unknown"
	}
}

// ParseSourceType maps a wire name to a SourceType.
// Returns ErrInvalidSourceType for anything outside the closed set.
func ParseSourceType(s string) (SourceType, error) {
	switch s {
	case "video":
		return SourceTypeVideo, nil
	case "social":
		return SourceTypeSocial, nil
	case "document":
		return SourceTypeDocument, nil
	default:
		return 0, ErrInvalidSourceType
	}
}

// ContentSource is one external content origin registered against a persona.
// Deleting a source cascades removal of its chunks.
type ContentSource struct {
	Id              ID
	PersonaId       string
	Type            SourceType
	URL             string
	RawContent      []byte // Opaque payload for document uploads; empty for remote sources
	AddedAt         time.Time
	LastProcessedAt time.Time // Zero until the first successful ingest
}

// CrawlResult is the transient output of one crawler invocation.
// It is consumed immediately by the chunker and never persisted as-is.
// A single crawl may yield zero or many results.
type CrawlResult struct {
	Type     SourceType
	URL      string
	Title    string
	Content  string
	Metadata map[string]string
}

// ContentChunk is a bounded segment of source text paired with its embedding.
// Chunks are immutable once written and superseded wholesale on re-crawl.
// A chunk whose Vector length differs from the configured embedding dimension
// is unsearchable.
type ContentChunk struct {
	Id         ID
	PersonaId  string
	Type       SourceType
	URL        string
	Text       string
	Vector     []float32
	Metadata   map[string]string
	InsertedAt time.Time
}

// JobStatus is the lifecycle state of a crawl job.
// Transitions: pending -> processing -> completed | failed.
type JobStatus int

const (
	// JobStatusPending means the job is enqueued but not yet started.
	JobStatusPending JobStatus = iota + 1
	// JobStatusProcessing means a worker is executing the job.
	JobStatusProcessing
	// JobStatusCompleted is terminal success.
	JobStatusCompleted
	// JobStatusFailed is terminal failure; Error carries the cause.
	JobStatusFailed
)

// String returns the wire name of the job status.
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusProcessing:
		return "processing"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobStage is the coarse progress milestone of a running job.
// Stages are reported for observability, not resumability: a retried
// job restarts from the crawl stage.
type JobStage int

const (
	JobStageNone JobStage = iota
	JobStageCrawl
	JobStageChunk
	JobStageEmbed
	JobStageStore
)

// String returns the milestone name of the stage.
func (s JobStage) String() string {
	switch s {
	case JobStageCrawl:
		return "crawl"
	case JobStageChunk:
		return "chunk"
	case JobStageEmbed:
		return "embed"
	case JobStageStore:
		return "store"
	default:
		return "none"
	}
}

// CrawlJob is one ingestion attempt for a (persona, source) pair.
// One row is written per job and updated only by its owning worker, so the
// history of a source survives concurrent re-triggers. Status views derive
// "latest per source" instead of overwriting a shared slot.
type CrawlJob struct {
	Id         ID
	PersonaId  string
	URL        string
	Type       SourceType
	Status     JobStatus
	Stage      JobStage
	Attempt    int
	Error      string
	EnqueuedAt time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// Persona is the profile being cloned for conversation.
// Facts, Q&A pairs, topics-to-avoid and keyword rules are stored as separate
// persona-scoped records and loaded independently per chat turn.
type Persona struct {
	Id         string
	Name       string
	Bio        string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// QAPair is a question/answer example used for few-shot prompting.
type QAPair struct {
	Question string
	Answer   string
}

// KeywordRule maps a comma-separated keyword set to a canned response.
// Rules are evaluated in ascending Priority, then insertion order, so the
// winning rule for a message is deterministic.
type KeywordRule struct {
	Keywords string
	Response string
	Priority int
}

// RetrievedChunk is a chunk returned from similarity search with its score.
type RetrievedChunk struct {
	Chunk      *ContentChunk
	Similarity float32
}

// SourceRef returns the source attribution for this retrieval hit.
func (c *RetrievedChunk) SourceRef() SourceRef {
	return SourceRef{
		Type:       c.Chunk.Type,
		URL:        c.Chunk.URL,
		Similarity: c.Similarity,
	}
}

// SourceRef identifies the origin of retrieved context.
type SourceRef struct {
	Type       SourceType
	URL        string
	Similarity float32
}

// Reply is the result of one chat turn.
// Sources is empty for keyword-rule responses and generation fallbacks.
type Reply struct {
	Text    string
	Sources []SourceRef
}
