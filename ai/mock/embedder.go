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


package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// Dimensions is the embedding length produced by the default mock behavior.
const Dimensions = 768

// MockEmbedder is a test double for ai.Embedder.
// Set EmbedQueryFunc or EmbedTextsFunc to inject behavior; left nil, the mock
// produces deterministic vectors derived from the input text, so equal texts
// always embed identically and different texts (almost always) differ.
type MockEmbedder struct {
	mu sync.Mutex

	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	EmbedQueryCallCount int
	EmbedTextsCallCount int

	LastQueryText string
	LastBatch     []string
}

// NewMockEmbedder creates a MockEmbedder with deterministic default behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedQuery returns a deterministic vector for text, or delegates to
// EmbedQueryFunc when set.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.EmbedQueryCallCount++
	m.LastQueryText = text
	fn := m.EmbedQueryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return DeterministicVector(text), nil
}

// EmbedTexts returns deterministic vectors for texts, or delegates to
// EmbedTextsFunc when set.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.EmbedTextsCallCount++
	m.LastBatch = texts
	fn := m.EmbedTextsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = DeterministicVector(text)
	}
	return vectors, nil
}

// CallCount returns the total number of embed calls across both methods.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.EmbedQueryCallCount + m.EmbedTextsCallCount
}

// DeterministicVector derives a unit-length Dimensions-long vector from text
// using FNV hashing. Equal inputs always produce equal vectors.
func DeterministicVector(text string) []float32 {
	vector := make([]float32, Dimensions)

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	var norm float64
	for i := range vector {
		// xorshift64 keeps the sequence cheap and reproducible.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float32(int64(seed%2000)-1000) / 1000.0
		vector[i] = v
		norm += float64(v) * float64(v)
	}

	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector
}
