package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildParagraphs(paragraphs, sentencesPer int) string {
	var b strings.Builder
	for p := 0; p < paragraphs; p++ {
		for s := 0; s < sentencesPer; s++ {
			fmt.Fprintf(&b, "Paragraph %d sentence %d talks about cameras and lenses. ", p, s)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestSplit_EmptyInput(t *testing.T) {
	s := New()
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   "))
	assert.Empty(t, s.Split("\n\n\t  \n"))
}

func TestSplit_ShortInput(t *testing.T) {
	s := New()
	chunks := s.Split("  short text  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplit_InputAtBoundary(t *testing.T) {
	s := New()
	text := strings.Repeat("x", DefaultChunkSize)
	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_ChunkSizeBound(t *testing.T) {
	s := New()
	text := buildParagraphs(10, 6)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), s.ChunkSize(),
			"chunk %d exceeds size bound: %d chars", i, len(chunk))
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplit_CarriedTailStaysWithinBudget(t *testing.T) {
	s := New()

	// A long unbreakable run right after packed sentences forces the carried
	// tail to shrink; the tail plus the run must still fit the size budget.
	text := strings.Repeat("An intro sentence about camera gear. ", 10) +
		strings.Repeat("z", 480)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), s.ChunkSize(),
			"chunk %d exceeds size bound: %d chars", i, len(chunk))
	}
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	s := New()
	chunks := s.Split(buildParagraphs(8, 5))
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		nextWords := strings.Fields(chunks[i])
		require.NotEmpty(t, prevWords)
		require.NotEmpty(t, nextWords)

		shared := false
		tail := prevWords
		if len(tail) > 12 {
			tail = tail[len(tail)-12:]
		}
		head := nextWords
		if len(head) > 12 {
			head = head[:12]
		}
		for _, w := range tail {
			for _, h := range head {
				if w == h {
					shared = true
				}
			}
		}
		assert.True(t, shared, "chunks %d and %d share no overlapping tokens", i-1, i)
	}
}

func TestSplit_FullCoverage(t *testing.T) {
	s := New()
	text := strings.TrimSpace(buildParagraphs(6, 4))

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)

	// Every chunk is a contiguous substring of the input, and successive
	// chunks advance through it so the whole text is covered.
	pos := 0
	end := 0
	for i, chunk := range chunks {
		idx := strings.Index(text[pos:], chunk)
		require.GreaterOrEqual(t, idx, 0, "chunk %d not found in original text", i)
		start := pos + idx
		if end > 0 {
			// No gap between the previous chunk and this one beyond whitespace.
			gap := strings.TrimSpace(text[min(end, len(text)):start])
			assert.Empty(t, gap, "uncovered text before chunk %d", i)
		}
		if start+len(chunk) > end {
			end = start + len(chunk)
		}
		pos = start + 1
	}
	assert.Empty(t, strings.TrimSpace(text[end:]), "tail of input not covered")
}

func TestSplit_NoSeparators(t *testing.T) {
	s := New()
	text := strings.Repeat("a", 1200)

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), s.ChunkSize())
	}
	// Hard cuts still reproduce all content, accounting for overlap.
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	assert.GreaterOrEqual(t, total, len(text))
}

func TestSplit_CustomSize(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(10))
	assert.Equal(t, 100, s.ChunkSize())
	assert.Equal(t, 10, s.Overlap())

	chunks := s.Split(buildParagraphs(4, 3))
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
	}
}

func TestNew_OverlapLargerThanSize(t *testing.T) {
	s := New(WithChunkSize(40), WithOverlap(100))
	// Overlap is clamped so assembly terminates.
	assert.Less(t, s.Overlap(), s.ChunkSize())
}
