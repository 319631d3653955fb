package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/echotwin/echotwin/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"watch with extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := extractVideoID(tt.url)
			require.NoError(t, err)
			assert.Equal(t, "dQw4w9WgXcQ", id)
		})
	}
}

func TestExtractVideoID_Invalid(t *testing.T) {
	for _, u := range []string{
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/playlist?list=PL123",
		"not a url",
		"",
	} {
		_, err := extractVideoID(u)
		assert.ErrorIs(t, err, ErrInvalidSourceURL, "url %q", u)
	}
}

func newTestTranscriptCrawler(endpoint string) *transcriptCrawler {
	c := newTranscriptCrawler(http.DefaultClient, slog.Default())
	c.timedTextURL = endpoint
	return c
}

func TestTranscriptCrawler_Crawl(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello everyone,</text>
  <text start="2.5" dur="3.1">welcome back to the channel &amp; thanks for watching.</text>
</transcript>`))
	}))
	defer server.Close()

	c := newTestTranscriptCrawler(server.URL)
	results, err := c.Crawl(context.Background(), &core.ContentSource{
		PersonaId: "persona-1",
		Type:      core.SourceTypeVideo,
		URL:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, core.SourceTypeVideo, result.Type)
	assert.Equal(t, "Hello everyone, welcome back to the channel & thanks for watching.", result.Content)
	assert.Equal(t, "dQw4w9WgXcQ", result.Metadata["videoId"])
}

func TestTranscriptCrawler_EmptyTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<transcript></transcript>`))
	}))
	defer server.Close()

	c := newTestTranscriptCrawler(server.URL)
	_, err := c.Crawl(context.Background(), &core.ContentSource{
		URL: "https://youtu.be/dQw4w9WgXcQ",
	})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestTranscriptCrawler_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestTranscriptCrawler(server.URL)
	_, err := c.Crawl(context.Background(), &core.ContentSource{
		URL: "https://youtu.be/dQw4w9WgXcQ",
	})
	assert.ErrorIs(t, err, ErrFetch)
}

func TestTranscriptCrawler_MalformedTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<transcript><text>unclosed`))
	}))
	defer server.Close()

	c := newTestTranscriptCrawler(server.URL)
	_, err := c.Crawl(context.Background(), &core.ContentSource{
		URL: "https://youtu.be/dQw4w9WgXcQ",
	})
	assert.ErrorIs(t, err, ErrParse)
}

func TestTranscriptCrawler_InvalidURL(t *testing.T) {
	c := newTestTranscriptCrawler("http://127.0.0.1:0")
	_, err := c.Crawl(context.Background(), &core.ContentSource{
		URL: "https://example.com/video/123",
	})
	// No request is made for an unrecognized URL shape.
	assert.ErrorIs(t, err, ErrInvalidSourceURL)
}
