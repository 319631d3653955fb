package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/echotwin/echotwin/core"
)

// defaultOEmbedURL is the public post-metadata endpoint.
const defaultOEmbedURL = "https://www.instagram.com/api/oembed"

// captionCrawler extracts the caption of a social post via the public
// metadata endpoint, falling back to the embedded markup snippet when the
// title field is absent.
type captionCrawler struct {
	client    *http.Client
	oembedURL string
	logger    *slog.Logger
}

var _ Crawler = (*captionCrawler)(nil)

func newCaptionCrawler(client *http.Client, logger *slog.Logger) *captionCrawler {
	return &captionCrawler{
		client:    client,
		oembedURL: defaultOEmbedURL,
		logger:    logger.With("crawler", "caption"),
	}
}

// oembedResponse is the subset of the metadata payload we consume.
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
	HTML       string `json:"html"`
}

// normalizePostURL strips the query string and ensures a trailing slash,
// the canonical shape the metadata endpoint expects.
func normalizePostURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSourceURL, raw)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed.String(), nil
}

// Crawl fetches the post metadata and extracts the caption.
func (c *captionCrawler) Crawl(ctx context.Context, source *core.ContentSource) ([]*core.CrawlResult, error) {
	normalized, err := normalizePostURL(source.URL)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetching post metadata", "url", normalized)

	endpoint := c.oembedURL + "?url=" + url.QueryEscape(normalized)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: metadata endpoint returned %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	var meta oembedResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	caption := strings.TrimSpace(meta.Title)
	extractedFrom := "title"
	if caption == "" {
		caption = extractCaptionFromMarkup(meta.HTML)
		extractedFrom = "markup"
	}
	if caption == "" {
		return nil, fmt.Errorf("%w: post %s has no caption", ErrNoContent, normalized)
	}

	metadata := map[string]string{"extractedFrom": extractedFrom}
	if meta.AuthorName != "" {
		metadata["author"] = meta.AuthorName
	}

	return []*core.CrawlResult{{
		Type:     core.SourceTypeSocial,
		URL:      normalized,
		Title:    caption,
		Content:  caption,
		Metadata: metadata,
	}}, nil
}

var markupTagPattern = regexp.MustCompile(`<[^>]+>`)

// extractCaptionFromMarkup strips tags from the embedded markup snippet and
// returns the remaining visible text.
func extractCaptionFromMarkup(markup string) string {
	if markup == "" {
		return ""
	}
	text := markupTagPattern.ReplaceAllString(markup, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
