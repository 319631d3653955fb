// Package crawler fetches and extracts raw text and metadata from external
// content sources. One crawler variant exists per source type behind a single
// capability interface; dispatch over the closed source-type set happens in
// Registry.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/echotwin/echotwin/core"
)

// Crawler extracts content from one external source.
// Implementations are pure with respect to external state: they return
// results or an error, never partial writes.
type Crawler interface {
	// Crawl fetches the source and returns one or more extracted results.
	// Errors are drawn from this package's taxonomy: ErrInvalidSourceURL,
	// ErrFetch, ErrParse, ErrNoContent.
	Crawl(ctx context.Context, source *core.ContentSource) ([]*core.CrawlResult, error)
}

// Registry holds the crawler for each source type.
// The set is closed: every core.SourceType maps to exactly one crawler,
// checked at construction rather than at dispatch time.
type Registry struct {
	video    Crawler
	social   Crawler
	document Crawler
}

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	client *http.Client
	logger *slog.Logger
}

// WithHTTPClient sets the HTTP client shared by the crawlers.
// The client's transport timeout bounds every fetch.
func WithHTTPClient(client *http.Client) Option {
	return func(c *registryConfig) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRegistry creates a Registry with one crawler per source type.
func NewRegistry(opts ...Option) *Registry {
	cfg := &registryConfig{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Registry{
		video:    newTranscriptCrawler(cfg.client, cfg.logger),
		social:   newCaptionCrawler(cfg.client, cfg.logger),
		document: newDocumentCrawler(cfg.client, cfg.logger),
	}
}

// For returns the crawler registered for the given source type.
func (r *Registry) For(sourceType core.SourceType) (Crawler, error) {
	switch sourceType {
	case core.SourceTypeVideo:
		return r.video, nil
	case core.SourceTypeSocial:
		return r.social, nil
	case core.SourceTypeDocument:
		return r.document, nil
	default:
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidSourceType, sourceType)
	}
}

// Crawl dispatches to the crawler for the source's type.
func (r *Registry) Crawl(ctx context.Context, source *core.ContentSource) ([]*core.CrawlResult, error) {
	c, err := r.For(source.Type)
	if err != nil {
		return nil, err
	}
	return c.Crawl(ctx, source)
}
