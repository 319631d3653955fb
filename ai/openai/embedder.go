// Copyright 2026 Echotwin Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/echotwin/echotwin/ai"
)

// Embedder implements ai.Embedder using an OpenAI-compatible embeddings API.
type Embedder struct {
	embedder   embeddings.Embedder
	dimensions int
}

// NewEmbedder creates an Embedder backed by the configured embedding endpoint.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"), // local OpenAI-compatible servers ignore the token
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Embedder{
		embedder:   embedder,
		dimensions: config.EmbeddingDimensions,
	}, nil
}

// EmbedQuery generates an embedding for a single text string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings for a batch of texts. The batch is
// all-or-nothing: any backend failure or dimension mismatch aborts the whole
// batch without returning partial results.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingBackend, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ai.ErrEmbeddingBackend, len(vectors), len(texts))
	}
	for i, vector := range vectors {
		if len(vector) != e.dimensions {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, want %d",
				ai.ErrDimensionMismatch, i, len(vector), e.dimensions)
		}
	}

	return vectors, nil
}
