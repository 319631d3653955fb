// Package chunker splits raw source text into overlapping bounded-size
// segments for embedding and retrieval.
//
// The splitter prefers coarse boundaries: it first tries to cut on paragraph
// breaks, then line breaks, sentence ends, word spaces, and finally raw
// characters, so chunks keep as much natural structure as the size budget
// allows. A tail of each chunk is carried into the head of the next to
// preserve context across boundaries.
package chunker

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 500
	// DefaultOverlap is the number of tail characters carried into the next chunk.
	DefaultOverlap = 50
)

// defaultSeparators is ordered coarsest to finest. The empty string means
// a hard cut at the size limit.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter splits text into overlapping segments of bounded size.
// The zero value is not usable; construct with New.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap carried between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a Splitter with the default size, overlap and separator set.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultOverlap,
		separators: defaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 10
	}
	return s
}

// ChunkSize returns the configured target size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split splits text into chunks of at most ChunkSize characters, with
// Overlap characters shared between consecutive chunks.
//
// Empty or whitespace-only input yields no chunks. Input shorter than the
// chunk size yields exactly one chunk equal to the trimmed input. The carried
// tail counts against the size budget, shrinking when the next piece leaves
// no room for it, so no chunk ever exceeds ChunkSize.
func (s *Splitter) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) <= s.chunkSize {
		return []string{trimmed}
	}

	pieces := s.divide(trimmed, 0)
	return s.assemble(pieces)
}

// divide recursively splits text into pieces no longer than chunkSize,
// preferring the coarsest separator that produces a split. Separators are
// kept on the tail of each piece so that concatenating pieces reproduces
// the input.
func (s *Splitter) divide(text string, level int) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	// Last resort: hard cut at the size limit.
	if level >= len(s.separators) || s.separators[level] == "" {
		var out []string
		for len(text) > s.chunkSize {
			out = append(out, text[:s.chunkSize])
			text = text[s.chunkSize:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}

	parts := strings.SplitAfter(text, s.separators[level])
	if len(parts) == 1 {
		// Separator absent, try the next finer one.
		return s.divide(text, level+1)
	}

	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		out = append(out, s.divide(part, level+1)...)
	}
	return out
}

// assemble packs boundary-aligned pieces into chunks, carrying the overlap
// tail of each finished chunk into the next.
func (s *Splitter) assemble(pieces []string) []string {
	var chunks []string
	var cur strings.Builder

	for _, piece := range pieces {
		if cur.Len() > 0 && cur.Len()+len(piece) > s.chunkSize {
			buffered := cur.String()
			if chunk := strings.TrimSpace(buffered); chunk != "" {
				chunks = append(chunks, chunk)
			}
			tail := overlapTail(buffered, s.overlap)
			if len(tail)+len(piece) > s.chunkSize {
				// The carried tail counts against the budget too.
				tail = overlapTail(buffered, s.chunkSize-len(piece))
			}
			cur.Reset()
			cur.WriteString(tail)
		}
		cur.WriteString(piece)
	}

	if chunk := strings.TrimSpace(cur.String()); chunk != "" {
		// The final buffer can be pure carried overlap, already covered by
		// the previous chunk.
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], chunk) {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// overlapTail returns the last n characters of text, expanded left to the
// nearest word boundary when one is close enough to keep whole words.
func overlapTail(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	if len(text) <= n {
		return text
	}
	tail := text[len(text)-n:]
	if idx := strings.IndexByte(tail, ' '); idx > 0 && idx < len(tail)-1 {
		// Drop the leading partial word.
		tail = tail[idx+1:]
	}
	return tail
}
