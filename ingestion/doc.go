// Package ingestion provides pipeline orchestration for content ingestion.
//
// The Pipeline type manages the crawl workflow for registered content
// sources:
//   - Crawling the source for raw text
//   - Splitting text into bounded chunks
//   - Generating embeddings for each chunk
//   - Atomically replacing the source's stored chunks
//
// Jobs run concurrently on a bounded worker pool. Every trigger writes its
// own durable job record with status and stage milestones, so the history of
// a source survives restarts and concurrent re-triggers. Failed jobs are
// retried with exponential backoff and restart from the crawl stage.
package ingestion
