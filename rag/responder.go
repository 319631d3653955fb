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


package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/echotwin/echotwin/ai"
	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage"
)

// DefaultMaxHits is how many retrieved chunks feed the prompt.
const DefaultMaxHits = 5

// Responder answers chat messages in a persona's voice using retrieval
// augmented generation. A chat turn degrades rather than fails: every
// downstream problem after persona lookup produces a reply, not an error.
type Responder struct {
	personas  storage.PersonaRepository
	chunks    storage.ChunkRepository
	embedder  ai.Embedder
	generator ai.Generator
	maxHits   int
	logger    *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMaxHits sets how many retrieved chunks feed the prompt.
// Default is DefaultMaxHits.
func WithMaxHits(maxHits int) Option {
	return func(r *Responder) error {
		if maxHits < 1 {
			maxHits = 1
		}
		r.maxHits = maxHits
		return nil
	}
}

// NewResponder creates a new responder.
func NewResponder(
	personas storage.PersonaRepository,
	chunks storage.ChunkRepository,
	provider ai.Provider,
	opts ...Option,
) (*Responder, error) {
	if personas == nil {
		return nil, ErrPersonaRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	r := &Responder{
		personas:  personas,
		chunks:    chunks,
		embedder:  provider.Embedder(),
		generator: provider.Generator(),
		maxHits:   DefaultMaxHits,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Chat produces a reply to message in the persona's voice.
//
// Keyword rules are checked before any model call: a matching rule returns
// its canned response without touching the embedder or generator. Otherwise
// the persona's context is loaded, relevant chunks are retrieved and the
// generator is prompted. ErrPersonaNotFound is the only error; everything
// else degrades to a reply with less context or an apology.
func (r *Responder) Chat(ctx context.Context, personaID, message string) (*core.Reply, error) {
	persona, err := r.personas.GetPersona(ctx, personaID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPersonaNotFound, personaID)
		}
		return nil, err
	}

	// Keyword rules short-circuit the whole pipeline.
	rules, err := r.personas.GetKeywordRules(ctx, personaID)
	if err != nil {
		r.logger.Error("error loading keyword rules", "personaId", personaID, "err", err)
	} else if rule, ok := matchKeywordRule(rules, message); ok {
		r.logger.Debug("keyword rule matched", "personaId", personaID, "keywords", rule.Keywords)
		return &core.Reply{Text: rule.Response}, nil
	}

	pc := r.loadContext(ctx, persona, message)

	text, err := r.generator.Generate(ctx, buildSystemPrompt(pc), message)
	if err != nil {
		r.logger.Error("error generating reply", "personaId", personaID, "err", err)
		return &core.Reply{
			Text: fmt.Sprintf("Sorry, %s can't reply right now. Please try again in a moment.", persona.Name),
		}, nil
	}

	reply := &core.Reply{Text: text}
	for _, hit := range pc.retrieved {
		reply.Sources = append(reply.Sources, hit.SourceRef())
	}
	return reply, nil
}

// loadContext gathers the persona's configuration and retrieves relevant
// chunks. The four reads are independent and run concurrently; each failure
// is logged and leaves its section empty.
func (r *Responder) loadContext(ctx context.Context, persona *core.Persona, message string) *promptContext {
	pc := &promptContext{persona: persona}
	var vector []float32

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		facts, err := r.personas.GetFacts(ctx, persona.Id)
		if err != nil {
			r.logger.Error("error loading facts", "personaId", persona.Id, "err", err)
			return
		}
		pc.facts = facts
	}()

	go func() {
		defer wg.Done()
		pairs, err := r.personas.GetQAPairs(ctx, persona.Id)
		if err != nil {
			r.logger.Error("error loading Q&A examples", "personaId", persona.Id, "err", err)
			return
		}
		pc.qaPairs = pairs
	}()

	go func() {
		defer wg.Done()
		topics, err := r.personas.GetTopicsToAvoid(ctx, persona.Id)
		if err != nil {
			r.logger.Error("error loading topics to avoid", "personaId", persona.Id, "err", err)
			return
		}
		pc.topics = topics
	}()

	go func() {
		defer wg.Done()
		v, err := r.embedder.EmbedQuery(ctx, message)
		if err != nil {
			r.logger.Error("error embedding message", "personaId", persona.Id, "err", err)
			return
		}
		vector = v
	}()

	wg.Wait()

	// No embedding means no retrieval, not a failed turn.
	if len(vector) == 0 {
		return pc
	}

	retrieved, err := r.chunks.SearchSimilar(ctx, persona.Id, vector, r.maxHits)
	if err != nil {
		r.logger.Error("error searching chunks", "personaId", persona.Id, "err", err)
		return pc
	}
	pc.retrieved = retrieved
	return pc
}
