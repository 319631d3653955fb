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
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/echotwin/echotwin/ai"
)

// generationTemperature keeps persona replies close to the retrieved source
// material without being fully deterministic.
const generationTemperature = 0.7

// Generator implements ai.Generator using an OpenAI-compatible chat API.
type Generator struct {
	client *openai.LLM
}

// NewGenerator creates a Generator backed by the configured generation endpoint.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken("none"), // local OpenAI-compatible servers ignore the token
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	return &Generator{client: client}, nil
}

// Generate produces a reply to userMessage conditioned on systemPrompt.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userMessage)},
		},
	}

	response, err := g.client.GenerateContent(ctx, messages,
		llms.WithTemperature(generationTemperature))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ai.ErrGenerationBackend, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ai.ErrGenerationBackend)
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("%w: blank completion", ai.ErrGenerationBackend)
	}
	return text, nil
}
