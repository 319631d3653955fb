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
	"sync"
)

// MockGenerator is a test double for ai.Generator.
// Set GenerateFunc to inject behavior; left nil, the mock echoes the user
// message prefixed with "reply: ". The last prompts passed in are captured
// for assertions on prompt construction.
type MockGenerator struct {
	mu sync.Mutex

	GenerateFunc func(ctx context.Context, systemPrompt, userMessage string) (string, error)

	GenerateCallCount int
	LastSystemPrompt  string
	LastUserMessage   string
}

// NewMockGenerator creates a MockGenerator with echo default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the prompts and delegates to GenerateFunc when set.
func (m *MockGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	m.mu.Lock()
	m.GenerateCallCount++
	m.LastSystemPrompt = systemPrompt
	m.LastUserMessage = userMessage
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, systemPrompt, userMessage)
	}
	return "reply: " + userMessage, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GenerateCallCount
}
