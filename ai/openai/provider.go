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
	"fmt"

	"github.com/echotwin/echotwin/ai"
)

// Provider bundles the OpenAI-compatible embedder and generator behind the
// ai.Provider interface.
type Provider struct {
	embedder  ai.Embedder
	generator ai.Generator
}

// NewProvider creates a Provider from the given configuration. Both services
// are constructed eagerly so misconfiguration surfaces at startup rather than
// on first use.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	embedder, err := NewEmbedder(config)
	if err != nil {
		return nil, err
	}
	generator, err := NewGenerator(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder:  embedder,
		generator: generator,
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the response generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close releases resources held by the provider. The underlying HTTP clients
// hold no persistent connections that need explicit shutdown.
func (p *Provider) Close() error {
	return nil
}
