package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/echotwin/echotwin/core"
	"github.com/tmc/langchaingo/documentloaders"
)

// defaultDocumentTitle is used when the document carries no title metadata.
const defaultDocumentTitle = "Untitled Document"

// documentCrawler extracts text from an uploaded or remote PDF document.
type documentCrawler struct {
	client *http.Client
	logger *slog.Logger
}

var _ Crawler = (*documentCrawler)(nil)

func newDocumentCrawler(client *http.Client, logger *slog.Logger) *documentCrawler {
	return &documentCrawler{
		client: client,
		logger: logger.With("crawler", "document"),
	}
}

// Crawl extracts text and page count from the document behind the source.
// The payload comes from source.RawContent when present (document uploads),
// otherwise the source URL is fetched.
func (c *documentCrawler) Crawl(ctx context.Context, source *core.ContentSource) ([]*core.CrawlResult, error) {
	payload := source.RawContent
	if len(payload) == 0 {
		var err error
		payload, err = c.download(ctx, source.URL)
		if err != nil {
			return nil, err
		}
	}

	loader := documentloaders.NewPDF(bytes.NewReader(payload), int64(len(payload)))
	pages, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		if text := strings.TrimSpace(page.PageContent); text != "" {
			parts = append(parts, text)
		}
	}
	content := strings.Join(parts, "\n\n")
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: document %s contains no extractable text", ErrNoContent, source.URL)
	}

	title := defaultDocumentTitle
	metadata := map[string]string{
		"pageCount": strconv.Itoa(len(pages)),
	}
	// Title and author come from document metadata when the loader surfaces
	// them; their absence is not an error.
	if len(pages) > 0 {
		if t, ok := pages[0].Metadata["title"].(string); ok && strings.TrimSpace(t) != "" {
			title = strings.TrimSpace(t)
		}
		if a, ok := pages[0].Metadata["author"].(string); ok && strings.TrimSpace(a) != "" {
			metadata["author"] = strings.TrimSpace(a)
		}
	}

	c.logger.Debug("extracted document text", "url", source.URL, "pages", len(pages), "chars", len(content))

	return []*core.CrawlResult{{
		Type:     core.SourceTypeDocument,
		URL:      source.URL,
		Title:    title,
		Content:  content,
		Metadata: metadata,
	}}, nil
}

// download fetches the document bytes from a remote URL.
func (c *documentCrawler) download(ctx context.Context, sourceURL string) ([]byte, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, fmt.Errorf("%w: document source has neither url nor payload", ErrInvalidSourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: document endpoint returned %d", ErrFetch, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return payload, nil
}
