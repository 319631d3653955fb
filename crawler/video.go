package crawler

import (
	"context"
	"encoding/xml"
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

// defaultTimedTextURL is the public transcript-track endpoint.
const defaultTimedTextURL = "https://www.youtube.com/api/timedtext"

// videoIDPatterns covers the URL shapes a video link arrives in:
// canonical watch link, short link, embed link, and shorts link.
// A video identifier is always 11 URL-safe base64 characters.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
}

// extractVideoID pulls the video identifier out of a video URL.
func extractVideoID(sourceURL string) (string, error) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(sourceURL); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: no video id in %q", ErrInvalidSourceURL, sourceURL)
}

// transcriptCrawler extracts the transcript track of a video.
type transcriptCrawler struct {
	client       *http.Client
	timedTextURL string
	language     string
	logger       *slog.Logger
}

var _ Crawler = (*transcriptCrawler)(nil)

func newTranscriptCrawler(client *http.Client, logger *slog.Logger) *transcriptCrawler {
	return &transcriptCrawler{
		client:       client,
		timedTextURL: defaultTimedTextURL,
		language:     "en",
		logger:       logger.With("crawler", "transcript"),
	}
}

// timedText mirrors the transcript track XML shape.
type timedText struct {
	XMLName xml.Name        `xml:"transcript"`
	Lines   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start string `xml:"start,attr"`
	Body  string `xml:",chardata"`
}

// Crawl fetches the transcript track for the video behind source.URL.
func (c *transcriptCrawler) Crawl(ctx context.Context, source *core.ContentSource) ([]*core.CrawlResult, error) {
	videoID, err := extractVideoID(source.URL)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetching transcript track", "videoId", videoID)

	endpoint := fmt.Sprintf("%s?lang=%s&v=%s", c.timedTextURL, url.QueryEscape(c.language), url.QueryEscape(videoID))
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
		return nil, fmt.Errorf("%w: transcript endpoint returned %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	transcript, err := parseTimedText(body)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: transcript track is empty for video %s", ErrNoContent, videoID)
	}

	return []*core.CrawlResult{{
		Type:    core.SourceTypeVideo,
		URL:     source.URL,
		Title:   "Video transcript " + videoID,
		Content: transcript,
		Metadata: map[string]string{
			"videoId":  videoID,
			"language": c.language,
		},
	}}, nil
}

// parseTimedText joins the caption lines of a transcript track document.
func parseTimedText(body []byte) (string, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", nil
	}

	var track timedText
	if err := xml.Unmarshal(body, &track); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	parts := make([]string, 0, len(track.Lines))
	for _, line := range track.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Body))
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
